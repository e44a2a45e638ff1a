package domain

import "time"

type SignOutcome string

const (
	SignNotRegistered SignOutcome = "not_registered"
	SignAlreadySigned SignOutcome = "already_signed"
	SignEmpty         SignOutcome = "empty"
	SignTooLong       SignOutcome = "skipped_too_long"
	SignSigned        SignOutcome = "signed"
	SignFailed        SignOutcome = "failed"
)

type SignEvent struct {
	ChannelID string
	MessageID int
	Outcome   SignOutcome
	CreatedAt time.Time
}

type SignStatRepository interface {
	Save(ev SignEvent) error
	// Counts returns the number of signed posts per channel id.
	Counts() (map[string]int, error)
}
