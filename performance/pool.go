// Package performance provides buffer pooling for the matrices built while
// explaining a model.
package performance

import (
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
)

// MatrixPool provides object pooling for matrices to reduce GC pressure
//
// Buffers whose backing array holds more than maxSize elements are dropped
// instead of being returned to the pool. maxSize <= 0 disables the limit.
type MatrixPool struct {
	pool     sync.Pool
	maxSize  int
	inUse    int64
	created  int64
	recycled int64
	dropped  int64
	mu       sync.Mutex
	peak     int64
}

// PoolStats tracks pool performance metrics
type PoolStats struct {
	TotalAllocated   int64
	TotalRecycled    int64
	TotalDropped     int64
	CurrentInUse     int64
	PeakUsage        int64
	AverageReuseRate float64
}

// NewMatrixPool creates a new matrix pool
func NewMatrixPool(maxSize int) *MatrixPool {
	mp := &MatrixPool{maxSize: maxSize}
	mp.pool = sync.Pool{
		New: func() interface{} {
			atomic.AddInt64(&mp.created, 1)
			return &PooledMatrix{pool: mp}
		},
	}
	return mp
}

// Get retrieves a zeroed rows×cols matrix from the pool. rows and cols must
// be positive.
func (mp *MatrixPool) Get(rows, cols int) *PooledMatrix {
	current := atomic.AddInt64(&mp.inUse, 1)
	mp.updatePeakUsage(current)

	m := mp.pool.Get().(*PooledMatrix)
	n := rows * cols
	if cap(m.data) < n {
		m.data = make([]float64, n)
	}
	m.Dense = mat.NewDense(rows, cols, m.data[:n])
	m.released = false
	return m
}

// Put returns a matrix to the pool. Releasing twice is a no-op.
func (mp *MatrixPool) Put(m *PooledMatrix) {
	if m == nil || m.released {
		return
	}
	m.released = true
	m.Dense = nil
	atomic.AddInt64(&mp.inUse, -1)

	if mp.maxSize > 0 && cap(m.data) > mp.maxSize {
		atomic.AddInt64(&mp.dropped, 1)
		return
	}
	clear(m.data[:cap(m.data)])
	atomic.AddInt64(&mp.recycled, 1)
	mp.pool.Put(m)
}

// GetStats returns current pool statistics
func (mp *MatrixPool) GetStats() PoolStats {
	total := atomic.LoadInt64(&mp.created)
	recycled := atomic.LoadInt64(&mp.recycled)

	reuseRate := float64(0)
	if total > 0 {
		reuseRate = float64(recycled) / float64(total)
	}

	mp.mu.Lock()
	peak := mp.peak
	mp.mu.Unlock()

	return PoolStats{
		TotalAllocated:   total,
		TotalRecycled:    recycled,
		TotalDropped:     atomic.LoadInt64(&mp.dropped),
		CurrentInUse:     atomic.LoadInt64(&mp.inUse),
		PeakUsage:        peak,
		AverageReuseRate: reuseRate,
	}
}

func (mp *MatrixPool) updatePeakUsage(current int64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if current > mp.peak {
		mp.peak = current
	}
}

// PooledMatrix is a *mat.Dense whose backing array can be returned to a pool.
// The embedded Dense must not be used after Release.
type PooledMatrix struct {
	*mat.Dense
	data     []float64
	pool     *MatrixPool
	released bool
}

// Release returns the matrix to the pool
func (m *PooledMatrix) Release() {
	if m.pool != nil {
		m.pool.Put(m)
	}
}
