package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger used when the recorder fails.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = logger
	}
}

// WithEnabledActions restricts auditing to the given actions.
func WithEnabledActions(actions ...string) Option {
	return func(e *Extension) {
		e.only = actionSet(actions)
	}
}

// WithDisabledActions skips the given actions. It combines with
// WithEnabledActions; a skipped action is never recorded.
func WithDisabledActions(actions ...string) Option {
	return func(e *Extension) {
		if e.skip == nil {
			e.skip = make(map[string]struct{}, len(actions))
		}
		for _, a := range actions {
			e.skip[a] = struct{}{}
		}
	}
}

// WithMinimumSeverity drops events below the given severity, for example
// SeverityWarning keeps only rejections, cancellations and budget alerts.
func WithMinimumSeverity(severity string) Option {
	return func(e *Extension) {
		e.minSeverity = severityRank(severity)
	}
}

func actionSet(actions []string) map[string]struct{} {
	set := make(map[string]struct{}, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}

func severityRank(s string) int {
	switch s {
	case SeverityWarning:
		return 1
	case SeverityError:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

// allows reports whether an event passes the configured filters.
func (e *Extension) allows(action, severity string) bool {
	if _, skipped := e.skip[action]; skipped {
		return false
	}
	if e.only != nil {
		if _, ok := e.only[action]; !ok {
			return false
		}
	}
	return severityRank(severity) >= e.minSeverity
}
