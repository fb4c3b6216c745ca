package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceIDGenerator(t *testing.T) {
	g := NewSequenceIDGenerator("")
	assert.Equal(t, "build-0001", g.Generate())
	assert.Equal(t, "build-0002", g.Generate())

	g = NewSequenceIDGenerator("run")
	assert.Equal(t, "run-0001", g.Generate())
}

func TestSequenceIDGenerator_Concurrent(t *testing.T) {
	g := NewSequenceIDGenerator("c")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.Generate()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 50)
}
