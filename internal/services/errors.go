package services

import "errors"

// Service errors
var (
	// Run errors
	ErrRunInProgress = errors.New("extraction run already in progress")

	// History errors
	ErrHistoryDisabled = errors.New("run history is disabled")
)
