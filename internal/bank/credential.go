package bank

import (
	"context"
	"fmt"
	"sync"
)

// TokenSource mints a fresh bearer token.
type TokenSource interface {
	Mint(ctx context.Context) (string, error)
	Name() string
}

// StaticTokenSource returns a fixed token supplied at process start.
type StaticTokenSource struct {
	Token string
}

func (s *StaticTokenSource) Mint(_ context.Context) (string, error) { return s.Token, nil }
func (s *StaticTokenSource) Name() string                           { return "static" }

// Credential is the bearer credential shared read-only by concurrent fetch
// tasks within a cycle. Refresh is generation-guarded so that one expiry
// event produces exactly one mint: the first caller refreshes while holding
// the lock, and callers that queued behind it observe the bumped generation
// and reuse the fresh token.
type Credential struct {
	mu     sync.Mutex
	source TokenSource
	token  string
	gen    uint64
}

// NewCredential wraps a token source. The first Token call mints lazily.
func NewCredential(source TokenSource) *Credential {
	return &Credential{source: source}
}

// Token returns the current token and its generation.
func (c *Credential) Token(ctx context.Context) (string, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		if err := c.mintLocked(ctx); err != nil {
			return "", 0, err
		}
	}
	return c.token, c.gen, nil
}

// Refresh replaces the token after an expiry, at most once per expiry event.
// staleGen is the generation of the rejected token; if another task already
// refreshed past it, the current token is returned without a second mint.
func (c *Credential) Refresh(ctx context.Context, staleGen uint64) (string, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen > staleGen && c.token != "" {
		return c.token, c.gen, nil
	}
	if err := c.mintLocked(ctx); err != nil {
		return "", 0, err
	}
	return c.token, c.gen, nil
}

func (c *Credential) mintLocked(ctx context.Context) error {
	tok, err := c.source.Mint(ctx)
	if err != nil {
		return fmt.Errorf("mint token (%s): %w", c.source.Name(), err)
	}
	c.token = tok
	c.gen++
	return nil
}
