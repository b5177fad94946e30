package apptracker

// AppTracker reports unexpected conditions to an external error tracker.
type AppTracker interface {
	CaptureMessage(message string)
	CaptureException(exception error)
}
