package traverse

import (
	"log/slog"

	"github.com/VictoriaMetrics/metrics"
	"github.com/goliatone/go-traverse/pkg/activity"
)

// Option configures the ambient collaborators of a Context. Options never
// touch traversal configuration, which goes through the guarded mutators.
type Option func(*contextConfig)

type contextConfig struct {
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	evaluatorLogger EvaluatorLogger
	logger          *slog.Logger
	metrics         *metrics.Set
	activityHooks   activity.Hooks
	activityConfig  *activity.Config
}

func applyOptions(opts []Option) contextConfig {
	cfg := contextConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithEvaluator configures the evaluator used by expression exclusion.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *contextConfig) {
		cfg.evaluator = e
	}
}

// WithLogger routes context lifecycle logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *contextConfig) {
		cfg.logger = logger
	}
}

// WithMetrics records traversal counters and timings into set.
func WithMetrics(set *metrics.Set) Option {
	return func(cfg *contextConfig) {
		cfg.metrics = set
	}
}

// WithActivityHooks attaches lifecycle hooks. Hooks are cloned and nil entries
// dropped. Emission is enabled unless WithActivityConfig disables it.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *contextConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig controls activity emission defaults.
func WithActivityConfig(config activity.Config) Option {
	return func(cfg *contextConfig) {
		cfg.activityConfig = &config
	}
}

func (c contextConfig) evaluatorLoggerOrNoop() EvaluatorLogger {
	if c.evaluatorLogger != nil {
		return c.evaluatorLogger
	}
	return noopEvaluatorLogger{}
}

func (c contextConfig) emitter() *activity.Emitter {
	config := activity.Config{Enabled: true, Channel: activity.DefaultChannel}
	if c.activityConfig != nil {
		config = *c.activityConfig
	}
	return activity.NewEmitter(c.activityHooks, config)
}

func (c contextConfig) loggerOrDiscard() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(slog.DiscardHandler)
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
