package entropy

import (
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestEntropy_ConcurrentIDs(t *testing.T) {
	entropy := New()
	wg := sync.WaitGroup{}
	concurrency := 50
	idc := make(chan string, concurrency)
	errc := make(chan error, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := ID(entropy)
			if err != nil {
				errc <- err
				return
			}
			idc <- id
		}()
	}

	wg.Wait()
	close(idc)
	close(errc)

	for err := range errc {
		t.Error("failed to generate ID:", err)
	}

	foundIds := map[string]bool{}
	for id := range idc {
		if _, err := ulid.Parse(id); err != nil {
			t.Error("invalid ULID generated", id)
		}
		if foundIds[id] {
			t.Error("duplicate ULID found", id)
		}
		foundIds[id] = true
	}
}
