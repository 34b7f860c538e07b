package traverse

import "github.com/puzpuzpuz/xsync/v3"

// ProgramCache stores compiled exclusion rules. Keys combine the engine, the
// evaluator instance and the expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache shares cache between the expression exclusion rules of
// every Context built with it.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *contextConfig) {
		cfg.programCache = cache
	}
}

// NewProgramCache returns a ProgramCache safe for concurrent use, so a single
// cache can back every Context of a process.
func NewProgramCache() ProgramCache {
	return &syncProgramCache{programs: xsync.NewMapOf[string, any]()}
}

type syncProgramCache struct {
	programs *xsync.MapOf[string, any]
}

func (c *syncProgramCache) Get(key string) (any, bool) {
	return c.programs.Load(key)
}

func (c *syncProgramCache) Set(key string, value any) {
	c.programs.Store(key, value)
}
