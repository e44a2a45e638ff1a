package domain

import "errors"

var (
	// ErrInvalidChannelInput is returned for add input that is neither an
	// @handle nor a numeric chat id.
	ErrInvalidChannelInput = errors.New("domain: invalid channel input")

	ErrChannelNotFound = errors.New("domain: channel not found")
)
