package prometheus

import (
	"testing"

	"github.com/MrEthical07/goAdmin/session"
)

func newMemoryStore(t *testing.T) *session.MemoryStore {
	t.Helper()
	store, err := session.NewMemoryStore(session.MemoryConfig{NumCounters: 1000, MaxCost: 1 << 20})
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}
