package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrDriverNil reports a renderer constructed without a prompt driver.
	ErrDriverNil = errors.New("tui: prompt driver is nil")
)
