//go:build test

package dict

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/bastiangx/offdict/pkg/index"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var memQueries = [][]string{
	{"a", "ap", "app", "appl", "apple"},
	{"b", "ba", "ban", "bana", "banan", "banana"},
	{"b", "ba", "ban", "band"},
	{"x", "ap1", "aplpe", "bnad"},
}

func memDictionary(t *testing.T) *Dictionary {
	t.Helper()
	log.SetLevel(log.ErrorLevel)
	t.Cleanup(func() { log.SetLevel(log.InfoLevel) })

	d := open(t, testOptions(t))
	_, err := d.Import(sample)
	require.NoError(t, err)
	_, err = d.BuildIndex()
	require.NoError(t, err)
	return d
}

func heapAlloc() int64 {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	return int64(m.HeapAlloc)
}

func TestMemoryLeakBasic(t *testing.T) {
	for _, iterations := range []int{100, 500, 1000} {
		t.Run(fmt.Sprintf("iterations_%d", iterations), func(t *testing.T) {
			d := memDictionary(t)
			baseline := heapAlloc()
			baselineGoroutines := runtime.NumGoroutine()

			ops := 0
			for i := 0; i < iterations; i++ {
				for _, pattern := range memQueries {
					for _, q := range pattern {
						_, err := d.Search(q, 5, i%2 == 0)
						require.NoError(t, err)
						ops++
					}
				}
			}

			delta := heapAlloc() - baseline
			memPerOp := float64(delta) / float64(ops)
			goroutineDelta := runtime.NumGoroutine() - baselineGoroutines
			t.Logf("ops=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d", ops, delta, memPerOp, goroutineDelta)

			if memPerOp > 1000 {
				t.Errorf("excessive memory usage per operation: %.2f bytes", memPerOp)
			}
			if goroutineDelta > 2 {
				t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
			}
		})
	}
}

func TestMemoryLeakConcurrent(t *testing.T) {
	for _, workers := range []int{2, 4, 8} {
		t.Run(fmt.Sprintf("workers_%d", workers), func(t *testing.T) {
			d := memDictionary(t)
			baseline := heapAlloc()
			baselineGoroutines := runtime.NumGoroutine()

			const perWorker = 200
			var g errgroup.Group
			for w := 0; w < workers; w++ {
				g.Go(func() error {
					for i := 0; i < perWorker; i++ {
						pattern := memQueries[(w+i)%len(memQueries)]
						if _, err := d.Candidates(pattern[i%len(pattern)], 5, false); err != nil {
							return err
						}
					}
					return nil
				})
			}
			// a rebuild in the middle swaps the index under the readers
			g.Go(func() error {
				_, err := d.BuildIndex(index.BackendFST)
				return err
			})
			require.NoError(t, g.Wait())

			ops := workers * perWorker
			delta := heapAlloc() - baseline
			memPerOp := float64(delta) / float64(ops)
			goroutineDelta := runtime.NumGoroutine() - baselineGoroutines
			t.Logf("workers=%d ops=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d",
				workers, ops, delta, memPerOp, goroutineDelta)

			if memPerOp > 1000 {
				t.Errorf("excessive memory usage per operation: %.2f bytes", memPerOp)
			}
			if goroutineDelta > 3 {
				t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
			}
		})
	}
}
