package convert

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"
)

// memo keeps results of recent conversions, editors tend to send the same
// text more than once (undo, switching modes).
type memo struct {
	c *cache.Cache
}

func newMemo(expiration, cleanup time.Duration) *memo {
	if expiration <= 0 {
		expiration = cache.NoExpiration
	}
	return &memo{c: cache.New(expiration, cleanup)}
}

func memoKey(direction, text string) string {
	sum := sha256.Sum256([]byte(text))
	return direction + ":" + hex.EncodeToString(sum[:])
}

func (m *memo) get(direction, text string) (string, bool) {
	if m == nil {
		return "", false
	}
	if v, ok := m.c.Get(memoKey(direction, text)); ok {
		return v.(string), true
	}
	return "", false
}

func (m *memo) set(direction, text, result string) {
	if m == nil {
		return
	}
	m.c.SetDefault(memoKey(direction, text), result)
}

func (m *memo) len() int {
	if m == nil {
		return 0
	}
	return m.c.ItemCount()
}
