package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/JonnyWalker81/daylog/internal/reflection"
	"github.com/JonnyWalker81/daylog/internal/repository"
	"github.com/google/uuid"
)

var (
	// ErrInvalidID indicates a path or query id is not a UUID
	ErrInvalidID = errors.New("invalid id")
	// ErrFutureTimestamp indicates a UUIDv7 claims a creation time too far ahead
	ErrFutureTimestamp = errors.New("id timestamp is too far in the future")

	// ErrNotFound is returned for missing records and records owned by another user
	ErrNotFound = repository.ErrNotFound
	// ErrUnknownReason is returned when a reflection names a reason with no rule set
	ErrUnknownReason = reflection.ErrUnknownReason
)

// MaxFutureMinutes is the clock skew tolerated on UUIDv7 timestamps
const MaxFutureMinutes = 1

// ValidateID checks that id is a UUID. Version 7 ids, which reflection
// sessions use, must not carry a timestamp more than MaxFutureMinutes ahead.
func ValidateID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidID, err)
	}

	if parsed.Version() != 7 {
		return nil
	}

	// For UUIDv7, Time() is derived from the embedded Unix milliseconds
	sec, nsec := parsed.Time().UnixTime()
	timestamp := time.Unix(sec, nsec)

	maxAllowed := time.Now().Add(time.Duration(MaxFutureMinutes) * time.Minute)
	if timestamp.After(maxAllowed) {
		return fmt.Errorf("%w: %w: %v is more than %d minute(s) ahead",
			ErrInvalidID, ErrFutureTimestamp, timestamp.Format(time.RFC3339), MaxFutureMinutes)
	}

	return nil
}
