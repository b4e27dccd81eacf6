package cache

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintIgnoresTagOrderAndDuplicates(t *testing.T) {
	a := Fingerprint("Site", "built it", []string{"go", "web", "go"})
	b := Fingerprint("Site", "built it", []string{"web", "go"})
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprintSeparatesFields(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"title vs description", Fingerprint("ab", "c", nil), Fingerprint("a", "bc", nil)},
		{"description vs tag", Fingerprint("a", "b", nil), Fingerprint("a", "", []string{"b"})},
		{"tag split", Fingerprint("a", "", []string{"b c"}), Fingerprint("a", "", []string{"b", "c"})},
		{"tag case", Fingerprint("a", "", []string{"Go"}), Fingerprint("a", "", []string{"go"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, tt.a, tt.b)
		})
	}
}

func TestDerive(t *testing.T) {
	fp := Fingerprint("a", "b", nil)
	assert.Equal(t, Derive(fp, "Ada", "short"), Derive(fp, "Ada", "short"))
	assert.NotEqual(t, Derive(fp, "Ada", "short"), Derive(fp, "Ada", "long"))
	assert.NotEqual(t, Derive(fp, "Ada"), fp)
}

func TestMemoComputesOnce(t *testing.T) {
	m := NewMemo[string]()
	calls := 0
	compute := func() string {
		calls++
		return "value"
	}

	assert.Equal(t, "value", m.GetOrCompute("k", compute))
	assert.Equal(t, "value", m.GetOrCompute("k", compute))
	assert.Equal(t, 1, calls)

	stats := m.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.Computes)
	assert.Equal(t, int64(1), stats.Hits)
}

func TestMemoConcurrentCallersShareOneCompute(t *testing.T) {
	m := NewMemo[int]()
	var calls atomic.Int32
	release := make(chan struct{})

	const workers = 32
	var started, done sync.WaitGroup
	started.Add(workers)
	done.Add(workers)
	results := make([]int, workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i] = m.GetOrCompute("same", func() int {
				calls.Add(1)
				<-release
				return 42
			})
		}(i)
	}
	started.Wait()
	close(release)
	done.Wait()

	require.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, 42, r)
	}
}

func TestMemoKeysAreIndependent(t *testing.T) {
	m := NewMemo[string]()
	m.GetOrCompute("a", func() string { return "A" })
	m.GetOrCompute("b", func() string { return "B" })

	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, "A", v)
	_, ok = m.Get("c")
	assert.False(t, ok)
	assert.Equal(t, 2, m.Len())
}
