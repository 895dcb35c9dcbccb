// Package service holds the producers that put domain actions on the queue.
// Each one writes the action in the same transaction as the business change
// that calls for it.
package service

import "errors"

var (
	ErrBroadcastCancelled   = errors.New("broadcast is cancelled")
	ErrBroadcastAlreadySent = errors.New("broadcast was already sent")
	ErrHoldHasNoEnd         = errors.New("hold has no end time")
	ErrAlreadyScheduled     = errors.New("action already scheduled")
)
