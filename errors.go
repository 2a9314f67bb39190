package crossway

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/anggasct/crossway/pkg/geometry"
)

// ErrorCode represents specific error conditions of the intersection controller
type ErrorCode int

const (
	// No error occurred
	ErrCodeNone ErrorCode = iota
	// Direction is not one of the four approaches
	ErrCodeInvalidDirection
	// Green time is outside the allowed range
	ErrCodeInvalidTiming
	// Two turning vehicles overlap under the strict policy
	ErrCodeHardConflict
	// Actor amount is negative
	ErrCodeInvalidAmount
)

// ConflictError reports two turning vehicles from different approaches that
// came closer than a vehicle width while the strict policy is active.
type ConflictError struct {
	Code ErrorCode
	Tick int
	A    uuid.UUID
	B    uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict error [tick %d]: vehicles %s and %s overlap while turning", e.Tick, e.A, e.B)
}

// NewConflictError creates a new hard conflict error
func NewConflictError(tick int, a, b uuid.UUID) *ConflictError {
	return &ConflictError{
		Code: ErrCodeHardConflict,
		Tick: tick,
		A:    a,
		B:    b,
	}
}

// DirectionError represents an unknown approach
type DirectionError struct {
	Code      ErrorCode
	Direction geometry.Direction
}

func (e *DirectionError) Error() string {
	return fmt.Sprintf("direction error: %d is not a valid approach", uint8(e.Direction))
}

// NewDirectionError creates a new invalid direction error
func NewDirectionError(d geometry.Direction) *DirectionError {
	return &DirectionError{
		Code:      ErrCodeInvalidDirection,
		Direction: d,
	}
}

// TimingError represents a green time outside the configured bounds
type TimingError struct {
	Code      ErrorCode
	Direction geometry.Direction
	Seconds   int
	Min       int
	Max       int
}

func (e *TimingError) Error() string {
	return fmt.Sprintf("timing error [%s]: green time %d outside [%d, %d]", e.Direction, e.Seconds, e.Min, e.Max)
}

// NewTimingError creates a new invalid timing error
func NewTimingError(d geometry.Direction, seconds, min, max int) *TimingError {
	return &TimingError{
		Code:      ErrCodeInvalidTiming,
		Direction: d,
		Seconds:   seconds,
		Min:       min,
		Max:       max,
	}
}

// AmountError represents a negative number of actors to add
type AmountError struct {
	Code   ErrorCode
	Amount int
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("amount error: cannot add %d actors", e.Amount)
}

// NewAmountError creates a new invalid amount error
func NewAmountError(amount int) *AmountError {
	return &AmountError{
		Code:   ErrCodeInvalidAmount,
		Amount: amount,
	}
}

// IsConflictError checks if an error is a ConflictError
func IsConflictError(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsDirectionError checks if an error is a DirectionError
func IsDirectionError(err error) bool {
	var target *DirectionError
	return errors.As(err, &target)
}

// IsTimingError checks if an error is a TimingError
func IsTimingError(err error) bool {
	var target *TimingError
	return errors.As(err, &target)
}

// IsAmountError checks if an error is an AmountError
func IsAmountError(err error) bool {
	var target *AmountError
	return errors.As(err, &target)
}

// GetErrorCode returns the error code for known error types
func GetErrorCode(err error) ErrorCode {
	var (
		conflictErr  *ConflictError
		directionErr *DirectionError
		timingErr    *TimingError
		amountErr    *AmountError
	)
	switch {
	case errors.As(err, &conflictErr):
		return conflictErr.Code
	case errors.As(err, &directionErr):
		return directionErr.Code
	case errors.As(err, &timingErr):
		return timingErr.Code
	case errors.As(err, &amountErr):
		return amountErr.Code
	default:
		return ErrCodeNone
	}
}
