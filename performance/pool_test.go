package performance

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixPoolGetRelease(t *testing.T) {
	pool := NewMatrixPool(0)

	m := pool.Get(3, 2)
	r, c := m.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	m.Set(2, 1, 7)
	assert.Equal(t, 7.0, m.At(2, 1))

	stats := pool.GetStats()
	assert.Equal(t, int64(1), stats.CurrentInUse)
	assert.Equal(t, int64(1), stats.PeakUsage)

	m.Release()
	m.Release()
	stats = pool.GetStats()
	assert.Equal(t, int64(0), stats.CurrentInUse)
	assert.Equal(t, int64(1), stats.TotalRecycled)
}

func TestMatrixPoolReturnsZeroedBuffers(t *testing.T) {
	pool := NewMatrixPool(0)
	for i := 0; i < 20; i++ {
		m := pool.Get(4, 4)
		for r := 0; r < 4; r++ {
			for c := 0; c < 4; c++ {
				require.Equal(t, 0.0, m.At(r, c))
				m.Set(r, c, float64(i+1))
			}
		}
		m.Release()
	}
}

func TestMatrixPoolResizes(t *testing.T) {
	pool := NewMatrixPool(0)
	small := pool.Get(1, 1)
	small.Release()

	big := pool.Get(10, 5)
	r, c := big.Dims()
	assert.Equal(t, 10, r)
	assert.Equal(t, 5, c)
	big.Set(9, 4, 1)
	big.Release()
}

func TestMatrixPoolDropsOversized(t *testing.T) {
	pool := NewMatrixPool(8)
	m := pool.Get(4, 4)
	m.Release()

	stats := pool.GetStats()
	assert.Equal(t, int64(1), stats.TotalDropped)
	assert.Equal(t, int64(0), stats.TotalRecycled)
}

func TestMatrixPoolConcurrent(t *testing.T) {
	pool := NewMatrixPool(0)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m := pool.Get(5, 3)
				m.Set(0, 0, 1)
				m.Release()
			}
		}()
	}
	wg.Wait()

	stats := pool.GetStats()
	assert.Equal(t, int64(0), stats.CurrentInUse)
	assert.Equal(t, int64(800), stats.TotalRecycled)
	assert.LessOrEqual(t, stats.PeakUsage, int64(8))
}

func BenchmarkMatrixPool(b *testing.B) {
	pool := NewMatrixPool(0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := pool.Get(50, 10)
		m.Release()
	}
}
