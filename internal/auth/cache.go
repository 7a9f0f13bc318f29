package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pushrelay/push-relay/internal/domain"
	"golang.org/x/sync/singleflight"
)

// refreshSkew re-fetches the token this long before its reported expiry so a
// token handed to a dispatch cannot lapse mid fan-out.
const refreshSkew = time.Minute

// CachingTokenSource caches the most recent access token process-wide and
// refreshes it on demand. Concurrent refreshes collapse into a single
// exchange via singleflight.
type CachingTokenSource struct {
	source TokenSource
	now    func() time.Time

	mu    sync.RWMutex
	token domain.AccessToken

	group singleflight.Group
}

func NewCachingTokenSource(source TokenSource) (*CachingTokenSource, error) {
	if source == nil {
		return nil, fmt.Errorf("token source is required")
	}

	return &CachingTokenSource{
		source: source,
		now:    time.Now,
	}, nil
}

func (c *CachingTokenSource) Token(ctx context.Context) (domain.AccessToken, error) {
	if c == nil || c.source == nil {
		return domain.AccessToken{}, fmt.Errorf("token source is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if cached, ok := c.cached(); ok {
		return cached, nil
	}

	value, err, _ := c.group.Do("access-token", func() (any, error) {
		// A concurrent caller may have refreshed while we waited for the flight.
		if cached, ok := c.cached(); ok {
			return cached, nil
		}

		fresh, err := c.source.Token(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.token = fresh
		c.mu.Unlock()

		return fresh, nil
	})
	if err != nil {
		return domain.AccessToken{}, err
	}

	token, ok := value.(domain.AccessToken)
	if !ok {
		return domain.AccessToken{}, fmt.Errorf("unexpected token type %T", value)
	}
	return token, nil
}

func (c *CachingTokenSource) cached() (domain.AccessToken, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.token.ValidAt(c.now().Add(refreshSkew)) {
		return domain.AccessToken{}, false
	}
	return c.token, true
}
