package traverse

import (
	"context"
	"log/slog"
	"time"
)

// EvaluatorLogEvent describes an evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Property string
	Excluded bool
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// SlogEvaluatorLogger writes evaluation events to logger: successes at debug
// level, failures at warn level.
func SlogEvaluatorLogger(logger *slog.Logger) EvaluatorLogger {
	if logger == nil {
		return noopEvaluatorLogger{}
	}
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		level := slog.LevelDebug
		attrs := []slog.Attr{
			slog.String("engine", event.Engine),
			slog.String("expr", event.Expr),
			slog.String("property", event.Property),
			slog.Bool("excluded", event.Excluded),
			slog.Duration("duration", event.Duration),
		}
		if event.Err != nil {
			level = slog.LevelWarn
			attrs = append(attrs, slog.Any("error", event.Err))
		}
		logger.LogAttrs(context.Background(), level, "exclusion expression evaluated", attrs...)
	})
}

// WithEvaluatorLogger attaches an evaluator logger to the Context.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *contextConfig) {
		if logger == nil {
			cfg.evaluatorLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evaluatorLogger = logger
	}
}
