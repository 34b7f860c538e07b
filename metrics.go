package traverse

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// traversalMetrics wraps an optional metrics.Set. Every method is a no-op when
// no set was configured.
type traversalMetrics struct {
	set *metrics.Set
}

func (m traversalMetrics) framePushed(kind FrameKind) {
	if m.set == nil {
		return
	}
	m.set.GetOrCreateCounter(fmt.Sprintf(`traverse_frames_pushed_total{kind=%q}`, kind.String())).Inc()
}

func (m traversalMetrics) framePopped(kind FrameKind) {
	if m.set == nil {
		return
	}
	m.set.GetOrCreateCounter(fmt.Sprintf(`traverse_frames_popped_total{kind=%q}`, kind.String())).Inc()
}

func (m traversalMetrics) stackError() {
	if m.set == nil {
		return
	}
	m.set.GetOrCreateCounter("traverse_stack_errors_total").Inc()
}

func (m traversalMetrics) logicError() {
	if m.set == nil {
		return
	}
	m.set.GetOrCreateCounter("traverse_logic_errors_total").Inc()
}

func (m traversalMetrics) excluded(rule string) {
	if m.set == nil {
		return
	}
	m.set.GetOrCreateCounter(fmt.Sprintf(`traverse_exclusions_total{rule=%q}`, rule)).Inc()
}

func (m traversalMetrics) accepted(format string, start time.Time) {
	if m.set == nil {
		return
	}
	m.set.GetOrCreateHistogram(fmt.Sprintf(`traverse_accept_duration_seconds{format=%q}`, format)).UpdateDuration(start)
}
