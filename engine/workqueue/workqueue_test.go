package workqueue

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionRangesCoversEveryIndexOnce(t *testing.T) {
	for _, n := range []int{0, 1, 2, 7, 10, 64, 97} {
		for _, w := range []int{1, 2, 3, 4, 7, 8, 16} {
			seen := make([]int, n)
			ranges := PartitionRanges(n, w)
			assert.LessOrEqual(t, len(ranges), w)
			for _, r := range ranges {
				require.Less(t, r[0], r[1], "n=%d w=%d empty range", n, w)
				require.LessOrEqual(t, r[1], n)
				for i := r[0]; i < r[1]; i++ {
					seen[i]++
				}
			}
			for i, c := range seen {
				assert.Equal(t, 1, c, "n=%d w=%d index %d", n, w, i)
			}
		}
	}
}

func TestPartitionRangesShortLastRange(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 4}, {4, 8}, {8, 10}}, PartitionRanges(10, 3))
	// perItem = 2, the fourth worker would start at 6 and is dropped.
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 5}}, PartitionRanges(5, 4))
}

func TestForEachRangeRunsAllItemsBeforeReturning(t *testing.T) {
	for _, workers := range []int{1, 4} {
		q := NewWorkQueue(workers)
		var total atomic.Int64
		slots := make([]int, q.NumWorkers())
		ForEachRange(q, 1000, func(slot, from, to int) {
			slots[slot] = to - from
			for i := from; i < to; i++ {
				total.Add(int64(i))
			}
		})
		assert.Equal(t, int64(999*1000/2), total.Load())
		sum := 0
		for _, s := range slots {
			sum += s
		}
		assert.Equal(t, 1000, sum)
	}
}
