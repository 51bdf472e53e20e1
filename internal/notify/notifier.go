// Package notify delivers high-severity variance alerts to operators.
// Delivery transports are collaborators behind a single interface; the
// detection engine neither knows nor cares whether an alert ends up in a
// mailbox or a websocket frame.
package notify

import "backend/internal/model"

// Notifier forwards one alert. Implementations must be safe for concurrent
// use; the variance detector calls Send exactly once per created alert.
type Notifier interface {
	Send(alertKind, subjectLabel, storeLabel string, details model.AlertDetails) error
}

// Multi fans an alert out to several transports, returning the first error
// after attempting all of them.
type Multi []Notifier

func (m Multi) Send(alertKind, subjectLabel, storeLabel string, details model.AlertDetails) error {
	var firstErr error
	for _, n := range m {
		if err := n.Send(alertKind, subjectLabel, storeLabel, details); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Noop discards alerts; used when no transport is configured.
type Noop struct{}

func (Noop) Send(string, string, string, model.AlertDetails) error { return nil }
