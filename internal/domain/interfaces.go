package domain

// Severity ranks a user-facing notification
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Notifier is the fire-and-forget notification sink used for fetch and
// mutation outcomes. Implementations must not block.
type Notifier interface {
	Notify(severity Severity, message string)
}

// NoOpNotifier discards notifications (for testing/batch operations).
type NoOpNotifier struct{}

func (NoOpNotifier) Notify(Severity, string) {}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(severity Severity, message string)

func (f NotifierFunc) Notify(severity Severity, message string) { f(severity, message) }
