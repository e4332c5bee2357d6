// Package sortx implements the two-phase external sort: a size-gated
// dispatch between an in-memory Simple Sort and a sample-partitioned
// External Sort, grounded directly on the original prototype's sort.rs /
// sort_algo.rs / partition.rs. One deliberate correction from the
// prototype: sort.rs measured input size with a hardcoded placeholder
// (`obj_size = 2_000_000_001 // to be added`), so the gate there always
// fell through to External Sort regardless of actual file size. Here the
// gate uses the real size of the resolved input object.
package sortx

import (
	"context"
	"fmt"
	"sort"

	"github.com/pingcap/tidb/br/pkg/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cvkem/parquetops/errs"
	"github.com/cvkem/parquetops/gateway"
	"github.com/cvkem/parquetops/keydesc"
	"github.com/cvkem/parquetops/objio"
	"github.com/cvkem/parquetops/pqschema"
	"github.com/cvkem/parquetops/rowstream"
	"github.com/cvkem/parquetops/writebuffer"
)

const (
	// MaxSimpleSortBytes is the size gate below which the whole input is
	// sorted in a single in-memory pass.
	MaxSimpleSortBytes int64 = 2_000_000_000

	// MaxSortBlock bounds both Simple Sort's single in-memory batch and
	// External Sort's per-block working set.
	MaxSortBlock = 1_000_000

	// SampleSize is the number of leading rows read to estimate partition
	// splitters.
	SampleSize = 1000

	// DefaultPartitions is the number of intermediate partitions External
	// Sort splits the input into (p). Production use should derive this
	// from the available sort-memory budget rather than hardcoding it, but
	// the prototype this is grounded on used a constant 3 and this keeps
	// the same default.
	DefaultPartitions = 3

	groupSize = 10000
)

// Options configures one Sort call.
type Options struct {
	Store        storage.ExternalStorage
	Logger       *zap.Logger
	Partitions   int // 0 means DefaultPartitions
	Compression  string
}

func (o Options) partitions() int {
	if o.Partitions > 0 {
		return o.Partitions
	}
	return DefaultPartitions
}

// Sort reads the rows at inputPath, sorts them by keyField, and writes the
// sorted result to outputPath, dispatching to Simple Sort or External Sort
// based on the input's real size.
func Sort(ctx context.Context, inputPath, outputPath objio.Path, keyField string, opts Options) error {
	size, err := objio.Size(ctx, inputPath, opts.Store, opts.Logger)
	if err != nil {
		return err
	}

	stream, err := rowstream.Open(ctx, inputPath, opts.Store, opts.Logger)
	if err != nil {
		return err
	}

	schema := stream.Schema()
	key, err := keydesc.New(schema, keyField)
	if err != nil {
		stream.Close()
		return err
	}

	if size < MaxSimpleSortBytes {
		defer stream.Close()
		return simpleSort(ctx, stream, schema, outputPath, key, opts)
	}
	stream.Close()
	return externalSort(ctx, inputPath, outputPath, schema, key, opts)
}

func openSink(ctx context.Context, path objio.Path, schema *pqschema.Schema, opts Options) (*writebuffer.RowWriteBuffer, error) {
	w, err := objio.OpenWriter(ctx, path, opts.Store, 10<<20, opts.Logger)
	if err != nil {
		return nil, err
	}
	writerOpts := gateway.DefaultWriterOptions()
	if opts.Compression != "" {
		writerOpts.Compression = opts.Compression
	}
	sink, err := gateway.OpenWriter(w, schema, writerOpts)
	if err != nil {
		w.Close()
		return nil, err
	}
	return writebuffer.Open(sink, groupSize), nil
}

func simpleSort(ctx context.Context, stream *rowstream.RowStream, schema *pqschema.Schema, outputPath objio.Path, key *keydesc.KeyDescriptor, opts Options) error {
	rows := stream.Take(MaxSortBlock + 1)
	if len(rows) > MaxSortBlock {
		return &errs.InputTooLarge{Limit: MaxSortBlock}
	}

	sort.Slice(rows, func(i, j int) bool { return key.RecordLess(rows[i], rows[j]) })

	wb, err := openSink(ctx, outputPath, schema, opts)
	if err != nil {
		return err
	}
	if err := wb.AppendRowGroup(rows); err != nil {
		wb.Close()
		return err
	}
	return wb.Close()
}

func externalSort(ctx context.Context, inputPath, outputPath objio.Path, schema *pqschema.Schema, key *keydesc.KeyDescriptor, opts Options) error {
	splitters, err := sampleSplitters(ctx, inputPath, key, opts)
	if err != nil {
		return err
	}

	numPartitions := len(splitters) + 1
	intermPaths := make([]objio.Path, numPartitions)
	for i := range intermPaths {
		p, perr := objio.ParsePath(outputPath.WithSuffix(fmt.Sprintf("intermediate-%d.parquet", i)))
		if perr != nil {
			return perr
		}
		intermPaths[i] = p
	}

	if err := stage1(ctx, inputPath, intermPaths, schema, splitters, key, opts); err != nil {
		return err
	}
	return stage2(ctx, intermPaths, outputPath, schema, key, opts)
}

// sampleSplitters reads a projected stream of the sort column only (via
// keydesc's partition schema), so sampling a multi-GB input's key range
// never decodes the rest of the row.
func sampleSplitters(ctx context.Context, inputPath objio.Path, key *keydesc.KeyDescriptor, opts Options) ([]pqschema.Row, error) {
	stream, err := rowstream.OpenProjected(ctx, inputPath, key.PartitionSchema(), opts.Store, opts.Logger)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	sample := stream.Take(SampleSize)
	sort.Slice(sample, func(i, j int) bool { return key.PartitionLess(sample[i], sample[j]) })

	p := opts.partitions()
	if p <= 1 || len(sample) == 0 {
		return nil, nil
	}
	step := (len(sample) + p - 2) / (p - 1) // ceil(len(sample) / (p-1))
	if step == 0 {
		step = 1
	}

	var splitters []pqschema.Row
	for i := 1; i < p; i++ {
		idx := i*step - 1
		if idx >= len(sample) {
			break
		}
		splitters = append(splitters, sample[idx])
	}
	return splitters, nil
}

// stage1 streams the input in MaxSortBlock-row blocks, sorts each block in
// memory, and routes each block's rows to the partition whose splitter
// bounds it — a block's sortedness means every partition's share of it is
// already a contiguous prefix, so routing is a single left-to-right scan.
func stage1(ctx context.Context, inputPath objio.Path, intermPaths []objio.Path, schema *pqschema.Schema, splitters []pqschema.Row, key *keydesc.KeyDescriptor, opts Options) error {
	stream, err := rowstream.Open(ctx, inputPath, opts.Store, opts.Logger)
	if err != nil {
		return err
	}
	defer stream.Close()

	sinks := make([]*writebuffer.RowWriteBuffer, len(intermPaths))
	{
		var eg errgroup.Group
		for i, p := range intermPaths {
			i, p := i, p
			eg.Go(func() error {
				sink, err := openSink(ctx, p, schema, opts)
				if err != nil {
					return err
				}
				sinks[i] = sink
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			for _, s := range sinks {
				if s != nil {
					s.Close()
				}
			}
			return err
		}
	}

	closeAll := func() error {
		var eg errgroup.Group
		for _, s := range sinks {
			s := s
			eg.Go(s.Close)
		}
		return eg.Wait()
	}

	for {
		block := stream.Take(MaxSortBlock)
		if len(block) == 0 {
			break
		}
		sort.Slice(block, func(i, j int) bool { return key.RecordLess(block[i], block[j]) })

		pos := 0
		for p := 0; p < len(splitters); p++ {
			filter := key.PartitionFilter(splitters[p])
			start := pos
			for pos < len(block) && filter(block[pos]) {
				pos++
			}
			if pos > start {
				if err := sinks[p].AppendRowGroup(block[start:pos]); err != nil {
					closeAll()
					return err
				}
			}
		}
		if pos < len(block) {
			if err := sinks[len(sinks)-1].AppendRowGroup(block[pos:]); err != nil {
				closeAll()
				return err
			}
		}
	}

	return closeAll()
}

// stage2 loads each intermediate file in partition order, sorts it (row
// groups within one intermediate file are individually sorted by stage1 but
// not sorted across groups), and appends it to the final output — partitions
// are disjoint and already ordered relative to each other, so no merge is
// needed, only per-file re-sort and concatenation.
func stage2(ctx context.Context, intermPaths []objio.Path, outputPath objio.Path, schema *pqschema.Schema, key *keydesc.KeyDescriptor, opts Options) error {
	wb, err := openSink(ctx, outputPath, schema, opts)
	if err != nil {
		return err
	}

	for _, p := range intermPaths {
		stream, err := rowstream.Open(ctx, p, opts.Store, opts.Logger)
		if err != nil {
			wb.Close()
			return err
		}
		rows := stream.Drain()
		stream.Close()

		if len(rows) == 0 {
			continue
		}
		sort.Slice(rows, func(i, j int) bool { return key.RecordLess(rows[i], rows[j]) })

		if err := wb.AppendRowGroup(rows); err != nil {
			wb.Close()
			return err
		}
	}

	return wb.Close()
}
