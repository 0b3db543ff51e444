package collection

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncMap_Take(t *testing.T) {
	m := NewSyncMap[string, int]()
	m.Put("a", 1)

	var wg sync.WaitGroup
	var mux sync.Mutex
	taken := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := m.Take("a"); ok {
				mux.Lock()
				taken++
				mux.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, taken)
	assert.Equal(t, 0, m.Len())
}

func TestSyncMap_RangeAllowsMutation(t *testing.T) {
	m := NewSyncMap[string, int]()
	m.Put("a", 1)
	m.Put("b", 2)
	m.Range(func(key string, value int) bool {
		m.Delete(key)
		return true
	})
	assert.Equal(t, 0, m.Len())
	_, ok := m.Get("a")
	assert.False(t, ok)
}
