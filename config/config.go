// Package config loads the process-level configuration this engine needs
// to run outside of tests: object-store backend credentials and the tuning
// constants spec.md leaves as defaults (group size, block size, the
// Simple-Sort/External-Sort byte threshold, default partition count).
// Grounded directly on the teacher's config.go/config/config.go: the same
// S3Config/GCSConfig shape, the same TOML tags, the same GetStore dispatch
// through storage.ParseBackend, and the same human-size-string tunables
// resolved via docker/go-units.
package config

import (
	"context"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/docker/go-units"
	"github.com/pingcap/tidb/br/pkg/storage"

	"github.com/cvkem/parquetops/errs"
)

// S3Config carries the S3-compatible backend credentials, identical in
// shape to the teacher's S3Config.
type S3Config struct {
	Region          string `toml:"region,omitempty"`
	AccessKey       string `toml:"access_key,omitempty"`
	SecretAccessKey string `toml:"secret_key,omitempty"`
	Provider        string `toml:"provider,omitempty"`
	Endpoint        string `toml:"endpoint,omitempty"`
	Force           bool   `toml:"force,omitempty"`
	RoleArn         string `toml:"role_arn,omitempty"`
}

// GCSConfig carries Google Cloud Storage credentials, reachable through the
// same storage.ExternalStorage interface even though the ObjectPath grammar
// this engine parses only names "s3:" paths today.
type GCSConfig struct {
	Credential string `toml:"credential,omitempty"`
}

// TuningConfig holds the engine's size-based tunables as human-readable
// strings ("10MiB", "2GiB"), resolved to byte counts by Normalize.
type TuningConfig struct {
	GroupSize          int    `toml:"group_size"`
	BlockSize          string `toml:"block_size"`
	MaxSimpleSortBytes string `toml:"max_simple_sort_bytes"`
	Partitions         int    `toml:"partitions"`
	Compression        string `toml:"compression"`

	BlockSizeBytes             int64 `toml:"-"`
	MaxSimpleSortBytesResolved int64 `toml:"-"`
}

// Config is the top-level configuration document, loaded from TOML.
type Config struct {
	Tuning   TuningConfig `toml:"tuning"`
	S3Config *S3Config    `toml:"s3,omitempty"`
	GCSConfig *GCSConfig  `toml:"gcs,omitempty"`
}

// Load reads and parses a TOML configuration file at path, then resolves
// its derived fields via Normalize.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, &errs.Open{Path: path, Cause: err}
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize resolves every human-size-string tunable to a byte count,
// falling back to the documented defaults when left blank.
func Normalize(cfg *Config) error {
	blockBytes, err := resolveSize(cfg.Tuning.BlockSize, 10<<20)
	if err != nil {
		return err
	}
	cfg.Tuning.BlockSizeBytes = blockBytes

	sortBytes, err := resolveSize(cfg.Tuning.MaxSimpleSortBytes, 2_000_000_000)
	if err != nil {
		return err
	}
	cfg.Tuning.MaxSimpleSortBytesResolved = sortBytes

	if cfg.Tuning.GroupSize == 0 {
		cfg.Tuning.GroupSize = 10000
	}
	if cfg.Tuning.Partitions == 0 {
		cfg.Tuning.Partitions = 3
	}
	if cfg.Tuning.Compression == "" {
		cfg.Tuning.Compression = "snappy"
	}
	return nil
}

func resolveSize(human string, fallback int64) (int64, error) {
	if strings.TrimSpace(human) == "" {
		return fallback, nil
	}
	bytes, err := units.RAMInBytes(human)
	if err != nil {
		return 0, &errs.Internal{Detail: "invalid size " + human + ": " + err.Error()}
	}
	if bytes <= 0 {
		return 0, &errs.Internal{Detail: "size must be greater than 0: " + human}
	}
	return bytes, nil
}

// Validate aggregates every configuration problem into one returned error,
// matching the teacher's Validate pattern of collecting all violations
// rather than failing on the first.
func Validate(cfg *Config) error {
	var problems []string

	if cfg.Tuning.GroupSize <= 0 {
		problems = append(problems, "tuning.group_size must be greater than 0")
	}
	if cfg.Tuning.Partitions <= 1 {
		problems = append(problems, "tuning.partitions must be greater than 1")
	}
	if cfg.S3Config != nil && cfg.GCSConfig != nil {
		problems = append(problems, "only one of [s3] or [gcs] can be configured")
	}

	if len(problems) == 0 {
		return nil
	}
	return &errs.Internal{Detail: "invalid config: " + strings.Join(problems, "; ")}
}

// GetStore opens the ExternalStorage backend described by cfg, dispatching
// through storage.ParseBackend exactly as the teacher's GetStore does.
func GetStore(ctx context.Context, cfg *Config, rootPath string) (storage.ExternalStorage, error) {
	var op *storage.BackendOptions
	if cfg.S3Config != nil {
		op = &storage.BackendOptions{S3: storage.S3BackendOptions{
			Region:          cfg.S3Config.Region,
			AccessKey:       cfg.S3Config.AccessKey,
			SecretAccessKey: cfg.S3Config.SecretAccessKey,
			Provider:        cfg.S3Config.Provider,
			Endpoint:        cfg.S3Config.Endpoint,
			RoleARN:         cfg.S3Config.RoleArn,
		}}
	} else if cfg.GCSConfig != nil {
		op = &storage.BackendOptions{GCS: storage.GCSBackendOptions{
			CredentialsFile: cfg.GCSConfig.Credential,
		}}
	}

	backend, err := storage.ParseBackend(rootPath, op)
	if err != nil {
		return nil, &errs.Backend{Kind: "parse", Detail: err.Error()}
	}

	store, err := storage.NewWithDefaultOpt(ctx, backend)
	if err != nil {
		return nil, &errs.Backend{Kind: "connect", Detail: err.Error()}
	}
	return store, nil
}
