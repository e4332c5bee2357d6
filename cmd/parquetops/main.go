// Command parquetops is a thin CLI driver over the parquetops package,
// grounded on the teacher's main.go: flag-based subcommand dispatch, a TOML
// config file loaded up front, and an ExternalStorage backend opened once
// and shared across the run. Unlike the teacher's generator CLI, this one
// never prints per-row output — only a zap-logged summary on completion,
// consistent with spec.md's "no console pretty-printing of results"
// non-goal, which binds library operations, not this driver's own exit
// status reporting.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/pingcap/tidb/br/pkg/storage"
	"go.uber.org/zap"

	"github.com/cvkem/parquetops"
	"github.com/cvkem/parquetops/config"
	"github.com/cvkem/parquetops/pqschema"
)

var (
	cfgPath    = flag.String("cfg", "", "path to TOML config file (backend credentials, tuning)")
	cmd        = flag.String("cmd", "", "operation: sort | merge | metadata | read")
	input      = flag.String("input", "", "input path (sort, metadata, read); repeatable via -input for merge is not supported, use -inputs")
	inputs     = flag.String("inputs", "", "comma-separated input paths (merge)")
	output     = flag.String("output", "", "output path (sort, merge)")
	keyField   = flag.String("key", "", "sort/merge key field name")
	projection = flag.String("projection", "", "read: Parquet message-type literal restricting which columns are materialized")
	verbose    = flag.Bool("v", false, "verbose logging")
)

func main() {
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("logger init: %v", err)
		}
		logger = l
	}
	defer logger.Sync()

	ctx := context.Background()

	var cfg config.Config
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			logger.Fatal("load config", zap.Error(err))
		}
		cfg = *loaded
	} else if err := config.Normalize(&cfg); err != nil {
		logger.Fatal("normalize config", zap.Error(err))
	}

	runStore, err := resolveStore(ctx, &cfg)
	if err != nil {
		logger.Fatal("resolve store", zap.Error(err))
	}

	switch *cmd {
	case "sort":
		if err := parquetops.Sort(ctx, *input, *output, *keyField, runStore, logger, parquetops.SortOptions{
			Partitions:  cfg.Tuning.Partitions,
			Compression: cfg.Tuning.Compression,
		}); err != nil {
			logger.Fatal("sort failed", zap.Error(err))
		}
	case "merge":
		paths := splitNonEmpty(*inputs)
		if err := parquetops.Merge(ctx, paths, *output, *keyField, runStore, logger); err != nil {
			logger.Fatal("merge failed", zap.Error(err))
		}
	case "metadata":
		md, err := parquetops.GetMetadata(ctx, *input, runStore, logger)
		if err != nil {
			logger.Fatal("metadata failed", zap.Error(err))
		}
		logger.Info("metadata",
			zap.String("schema", md.Schema.String()),
			zap.Int64("rows", md.NumRows),
			zap.Int("row_groups", len(md.RowGroups)))
	case "read":
		var proj *pqschema.Schema
		if *projection != "" {
			p, err := pqschema.ParseMessageType(*projection)
			if err != nil {
				logger.Fatal("parse -projection", zap.Error(err))
			}
			proj = p
		}
		rr, err := parquetops.ReadRows(ctx, *input, proj, runStore, logger)
		if err != nil {
			logger.Fatal("read failed", zap.Error(err))
		}
		defer rr.Close()
		rows := rr.Drain()
		if err := rr.Err(); err != nil {
			logger.Fatal("read failed", zap.Error(err))
		}
		logger.Info("read",
			zap.String("schema", rr.Schema().String()),
			zap.Int("rows", len(rows)))
	default:
		logger.Fatal("unknown -cmd, expected sort|merge|metadata|read", zap.String("cmd", *cmd))
	}
}

// resolveStore opens the backend named in cfg, or returns a nil
// storage.ExternalStorage when no backend is configured — valid since
// every operation only dereferences store for object-store paths
// ("s3:..."), never for local ones.
func resolveStore(ctx context.Context, cfg *config.Config) (storage.ExternalStorage, error) {
	if cfg.S3Config == nil && cfg.GCSConfig == nil {
		return nil, nil
	}
	root := *input
	if root == "" {
		root = *output
	}
	return config.GetStore(ctx, cfg, root)
}

func splitNonEmpty(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
