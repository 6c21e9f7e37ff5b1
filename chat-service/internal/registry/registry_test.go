package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigseized/rksp-final/chat-service/internal/domain"
)

func TestPutGetRemove(t *testing.T) {
	r := NewSessionRegistry()

	_, ok := r.Get("s1")
	assert.False(t, ok)

	r.Put(domain.SessionPrincipal{SessionID: "s1", UserID: "u1", DisplayName: "alice"})
	p, ok := r.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "u1", p.UserID)

	r.Put(domain.SessionPrincipal{SessionID: "s1", UserID: "u2"})
	p, _ = r.Get("s1")
	assert.Equal(t, "u2", p.UserID)

	r.Remove("s1")
	r.Remove("s1")
	_, ok = r.Get("s1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestCloseDropsEverything(t *testing.T) {
	r := NewSessionRegistry()
	r.Put(domain.SessionPrincipal{SessionID: "s1", UserID: "u1"})

	require.NoError(t, r.Close())
	assert.Equal(t, 0, r.Len())

	r.Put(domain.SessionPrincipal{SessionID: "s2", UserID: "u2"})
	assert.Equal(t, 0, r.Len())
}

func TestConcurrentSessionsAreIsolated(t *testing.T) {
	r := NewSessionRegistry()

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := fmt.Sprintf("s%d", i)
			uid := fmt.Sprintf("u%d", i)
			for j := 0; j < 100; j++ {
				r.Put(domain.SessionPrincipal{SessionID: sid, UserID: uid})
				p, ok := r.Get(sid)
				if !ok || p.UserID != uid {
					t.Errorf("session %s resolved to %+v", sid, p)
					return
				}
				if j%2 == 1 {
					r.Remove(sid)
				}
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, r.Len())
}
