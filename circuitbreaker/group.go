package circuitbreaker

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Group hands out one circuit breaker per upstream host. Breakers are created
// lazily from a shared template config.
type Group struct {
	template Config
	breakers *xsync.MapOf[string, CircuitBreaker]
}

// NewGroup creates a Group whose breakers share the given configuration.
// The Host field of cfg is ignored.
func NewGroup(cfg Config) *Group {
	return &Group{
		template: cfg,
		breakers: xsync.NewMapOf[string, CircuitBreaker](),
	}
}

// Get returns the breaker for host, creating it on first use
func (g *Group) Get(host string) CircuitBreaker {
	cb, _ := g.breakers.LoadOrCompute(host, func() CircuitBreaker {
		cfg := g.template
		cfg.Host = host
		return New(cfg)
	})
	return cb
}

// States returns a snapshot of every known host's breaker state
func (g *Group) States() map[string]State {
	states := make(map[string]State, g.breakers.Size())
	g.breakers.Range(func(host string, cb CircuitBreaker) bool {
		states[host] = cb.State()
		return true
	})
	return states
}
