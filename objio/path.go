package objio

import (
	"strings"

	"github.com/cvkem/parquetops/errs"
)

// Path is a parsed ObjectPath: either a local filesystem path (no colon) or
// an object-store path of the form "s3:<bucket>:<key>" (exactly two
// colons, non-empty bucket and key).
type Path struct {
	Raw           string
	IsObjectStore bool
	Bucket        string
	Key           string
}

// ParsePath parses raw per the ObjectPath grammar, failing with
// errs.BadPath on anything malformed.
func ParsePath(raw string) (Path, error) {
	if !strings.Contains(raw, ":") {
		return Path{Raw: raw, Key: raw}, nil
	}

	parts := strings.Split(raw, ":")
	if len(parts) != 3 || parts[0] != "s3" || parts[1] == "" || parts[2] == "" {
		return Path{}, &errs.BadPath{Path: raw}
	}

	return Path{Raw: raw, IsObjectStore: true, Bucket: parts[1], Key: parts[2]}, nil
}

// WithSuffix returns a new raw path string with the final ".parquet"
// suffix replaced by newSuffix (or, lacking one, with newSuffix appended). This
// is how the Sorter derives intermediate-file paths from the final output
// path.
func (p Path) WithSuffix(newSuffix string) string {
	replace := func(s string) string {
		if idx := strings.LastIndex(s, ".parquet"); idx >= 0 {
			return s[:idx] + newSuffix
		}
		return s + newSuffix
	}
	if !p.IsObjectStore {
		return replace(p.Raw)
	}
	return "s3:" + p.Bucket + ":" + replace(p.Key)
}
