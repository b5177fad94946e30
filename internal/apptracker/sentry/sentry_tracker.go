package sentry

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// Package-level sentry functions are swapped out in tests since they cannot
// be mocked directly.
var (
	captureMessageFunc   = sentry.CaptureMessage
	captureExceptionFunc = sentry.CaptureException
	InitFunc             = sentry.Init
	FlushFunc            = sentry.Flush
)

type sentryTracker struct {
	flushFreq time.Duration
}

func (s *sentryTracker) CaptureMessage(message string) {
	captureMessageFunc(message)
	FlushFunc(s.flushFreq)
}

func (s *sentryTracker) CaptureException(exception error) {
	captureExceptionFunc(exception)
	FlushFunc(s.flushFreq)
}

func NewSentryTracker(dsn string, env string, flushFreqSeconds int) (*sentryTracker, error) {
	if err := InitFunc(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
	}); err != nil {
		return nil, err
	}
	return &sentryTracker{flushFreq: time.Duration(flushFreqSeconds) * time.Second}, nil
}
