package dryrun

import (
	log "github.com/sirupsen/logrus"
)

// DryRunTracker logs captures locally instead of shipping them anywhere.
// Used when no Sentry DSN is configured.
type DryRunTracker struct{}

func (d *DryRunTracker) CaptureMessage(message string) {
	log.Info(message)
}

func (d *DryRunTracker) CaptureException(exception error) {
	log.WithError(exception).Error("captured exception")
}
