package testfixtures

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDGeneratorProducesSequentialIDs(t *testing.T) {
	t.Parallel()

	gen := NewIDGenerator("res")
	assert.Equal(t, "res-1", gen.Next())
	assert.Equal(t, "res-2", gen.Next())
}

func TestIDGeneratorDrainsQueueFirst(t *testing.T) {
	t.Parallel()

	next := NewIDGenerator("", "s-1", "tok-1").NextFunc()
	assert.Equal(t, "s-1", next())
	assert.Equal(t, "tok-1", next())
	assert.Equal(t, "id-1", next())
}

func TestIDGeneratorIsSafeForConcurrentUse(t *testing.T) {
	t.Parallel()

	gen := NewIDGenerator("c")
	seen := make(chan string, 50)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- gen.Next()
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[string]struct{}{}
	for id := range seen {
		unique[id] = struct{}{}
	}
	assert.Len(t, unique, 50)
}
