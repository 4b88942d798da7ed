package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBlacklist_AddAndCheck(t *testing.T) {
	store := NewInMemoryBlacklistStore()

	blacklisted, err := store.IsBlacklisted("token-a")
	assert.NoError(t, err)
	assert.False(t, blacklisted)

	assert.NoError(t, store.AddToBlacklist("token-a", time.Now().Add(time.Hour)))

	blacklisted, err = store.IsBlacklisted("token-a")
	assert.NoError(t, err)
	assert.True(t, blacklisted)
}

func TestBlacklist_CleanUpExpired(t *testing.T) {
	store := NewInMemoryBlacklistStore()
	_ = store.AddToBlacklist("expired-1", time.Now().Add(-time.Hour))
	_ = store.AddToBlacklist("expired-2", time.Now().Add(-time.Minute))
	_ = store.AddToBlacklist("valid", time.Now().Add(time.Hour))
	assert.Equal(t, 3, store.Len())

	store.CleanUpExpired()

	assert.Equal(t, 1, store.Len())
	blacklisted, _ := store.IsBlacklisted("valid")
	assert.True(t, blacklisted)
}

func TestBlacklist_RunCleanupStopsWithContext(t *testing.T) {
	store := NewInMemoryBlacklistStore()
	_ = store.AddToBlacklist("expired", time.Now().Add(-time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.RunCleanup(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 10*time.Millisecond)
	cancel()
	assert.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestBlacklist_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryBlacklistStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := string(rune('a' + i%26))
			_ = store.AddToBlacklist(token, time.Now().Add(time.Hour))
			_, _ = store.IsBlacklisted(token)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 26, store.Len())
}
