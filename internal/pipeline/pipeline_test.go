package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventohub/patent-etl/internal/extractor"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	"github.com/inventohub/patent-etl/internal/testutil"
)

func keysN(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%03d", i)
	}
	return keys
}

func TestRunProcessesEveryKey(t *testing.T) {
	p := New[string](4, 10, logging.NewNopLogger(), nil)

	var collected []string
	stats := p.Run(context.Background(), keysN(25),
		func(ctx context.Context, key string) ([]string, []extractor.Discard, error) {
			return []string{key}, nil, nil
		},
		func(records []string) error {
			collected = append(collected, records...)
			return nil
		})

	assert.Equal(t, 25, stats.Processed)
	assert.Equal(t, 25, stats.Extracted)
	assert.Zero(t, stats.Failed)
	assert.Zero(t, stats.Discarded)

	sort.Strings(collected)
	assert.Equal(t, keysN(25), collected)
}

func TestRunFailedKeyDoesNotCancelSiblings(t *testing.T) {
	p := New[string](3, 10, logging.NewNopLogger(), nil)

	stats := p.Run(context.Background(), keysN(10),
		func(ctx context.Context, key string) ([]string, []extractor.Discard, error) {
			if key == "key-004" {
				return nil, nil, errors.New("fetch blew up")
			}
			return []string{key}, nil, nil
		},
		func([]string) error { return nil })

	assert.Equal(t, 10, stats.Processed)
	assert.Equal(t, 9, stats.Extracted)
	assert.Equal(t, 1, stats.Failed)
}

func TestRunCountsDiscards(t *testing.T) {
	p := New[string](2, 10, logging.NewNopLogger(), nil)

	stats := p.Run(context.Background(), keysN(4),
		func(ctx context.Context, key string) ([]string, []extractor.Discard, error) {
			return nil, []extractor.Discard{{Reason: extractor.ReasonMissingField}}, nil
		},
		func([]string) error { return nil })

	assert.Equal(t, 4, stats.Discarded)
	assert.Zero(t, stats.Extracted)
}

func TestRunBoundsConcurrency(t *testing.T) {
	const workers = 3
	p := New[string](workers, 100, logging.NewNopLogger(), nil)

	var inFlight, peak atomic.Int32
	p.Run(context.Background(), keysN(30),
		func(ctx context.Context, key string) ([]string, []extractor.Discard, error) {
			n := inFlight.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			defer inFlight.Add(-1)
			return []string{key}, nil, nil
		},
		func([]string) error { return nil })

	assert.LessOrEqual(t, peak.Load(), int32(workers))
}

func TestRunLogsFailuresAndDiscards(t *testing.T) {
	log := testutil.NewMockLogger()
	p := New[string](2, 100, log, nil)

	p.Run(context.Background(), keysN(3),
		func(ctx context.Context, key string) ([]string, []extractor.Discard, error) {
			switch key {
			case "key-000":
				return nil, nil, errors.New("object unreadable")
			case "key-001":
				return nil, []extractor.Discard{{Reason: extractor.ReasonMalformedXML}}, nil
			default:
				return []string{key}, nil, nil
			}
		},
		func([]string) error { return nil })

	assert.Equal(t, 1, log.CountContaining("warn", "unit failed"))
	assert.Equal(t, 1, log.CountContaining("warn", "document discarded"))
}

func TestBatcherFlushesFullAndFinalPartial(t *testing.T) {
	var flushes [][]int
	b := NewBatcher[int](3, func(ctx context.Context, batch []int) error {
		flushes = append(flushes, append([]int(nil), batch...))
		return nil
	}, logging.NewNopLogger(), nil)

	ctx := context.Background()
	b.Add(ctx, 1, 2, 3, 4, 5, 6, 7)
	b.Close(ctx)

	require.Len(t, flushes, 3)
	assert.Equal(t, []int{1, 2, 3}, flushes[0])
	assert.Equal(t, []int{4, 5, 6}, flushes[1])
	assert.Equal(t, []int{7}, flushes[2])
	assert.Equal(t, 7, b.FlushedRows())
}

func TestBatcherFailedBatchDoesNotStopLaterOnes(t *testing.T) {
	var calls int
	b := NewBatcher[int](2, func(ctx context.Context, batch []int) error {
		calls++
		if calls == 1 {
			return errors.New("deadlock, rolled back")
		}
		return nil
	}, logging.NewNopLogger(), nil)

	ctx := context.Background()
	b.Add(ctx, 1, 2, 3, 4)
	b.Close(ctx)

	ok, failed := b.Batches()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 2, b.FlushedRows())
}

func TestBatcherCloseWithEmptyBufferIsNoop(t *testing.T) {
	var calls int
	b := NewBatcher[int](2, func(ctx context.Context, batch []int) error {
		calls++
		return nil
	}, logging.NewNopLogger(), nil)
	b.Close(context.Background())
	assert.Zero(t, calls)
}
