package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStoreAddRemove(t *testing.T) {
	store := NewMemoryStore()

	store.Add("alice", "conn-1")
	store.Add("bob", "conn-2")

	assert.True(t, store.IsOnline("alice"))
	assert.True(t, store.IsOnline("bob"))
	assert.ElementsMatch(t, []string{"alice", "bob"}, store.Snapshot())

	store.Remove("alice", "conn-1")
	assert.False(t, store.IsOnline("alice"))
	assert.ElementsMatch(t, []string{"bob"}, store.Snapshot())
}

// A reconnect replaces the old socket; the old socket's later
// disconnect must not take the user offline.
func TestMemoryStoreReconnectLastWriteWins(t *testing.T) {
	store := NewMemoryStore()

	store.Add("alice", "conn-old")
	store.Add("alice", "conn-new")

	// Each user appears at most once
	assert.Equal(t, []string{"alice"}, store.Snapshot())

	// Stale disconnect from the replaced socket is a no-op
	store.Remove("alice", "conn-old")
	assert.True(t, store.IsOnline("alice"))

	store.Remove("alice", "conn-new")
	assert.False(t, store.IsOnline("alice"))
}

func TestMemoryStoreRemoveUnknownUser(t *testing.T) {
	store := NewMemoryStore()
	store.Remove("ghost", "conn-1")
	assert.Empty(t, store.Snapshot())
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", n)
			connID := fmt.Sprintf("conn-%d", n)
			store.Add(userID, connID)
			store.Snapshot()
			store.Remove(userID, connID)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, store.Snapshot())
}
