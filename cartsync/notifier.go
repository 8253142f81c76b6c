package cartsync

// Level classifies a user-facing notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier receives user-facing notifications from the synchronizer: one
// success message per confirmed mutation and each error exactly once. The
// embedding UI decides how to render them.
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(level Level, message string)

// Notify calls the underlying function.
func (f NotifierFunc) Notify(level Level, message string) {
	f(level, message)
}
