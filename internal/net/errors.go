package net

import "github.com/pkg/errors"

var (
	// ErrInvalidConfig is wrapped by every configuration error.
	ErrInvalidConfig = errors.New("invalid network configuration")
	// ErrEmptySequence is returned when training or testing on no data.
	ErrEmptySequence = errors.New("empty sequence")
	// ErrBusy is returned when a run is started while another is in progress.
	ErrBusy = errors.New("network is busy")
	// ErrWindowSize is returned when a prediction window does not match the input layer.
	ErrWindowSize = errors.New("window size does not match input layer")
)
