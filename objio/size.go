package objio

import (
	"context"

	"github.com/pingcap/tidb/br/pkg/storage"
	"go.uber.org/zap"
)

// Size returns the on-disk size of the object at path, used by the Sorter
// to gate between Simple Sort and External Sort. The original prototype
// this engine is grounded on never actually computed this value (a
// hard-coded placeholder always routed to the external path); this
// implementation measures the real size via the same Reader the rest of
// ObjectIO uses.
func Size(ctx context.Context, path Path, store storage.ExternalStorage, logger *zap.Logger) (int64, error) {
	r, err := OpenReader(ctx, path, store, logger)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	return r.Length()
}
