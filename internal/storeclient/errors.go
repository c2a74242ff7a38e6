package storeclient

import (
	"errors"
	"fmt"
)

// ErrUnavailable matches every failure to reach or trust the store.
var ErrUnavailable = errors.New("storeclient: store unavailable")

const missingStatus = "missing status"

// StoreError describes one failed store call. errors.Is(err, ErrUnavailable)
// holds for every StoreError.
type StoreError struct {
	Op      string
	Status  int
	Message string
	Wrapped error
}

func (e *StoreError) Error() string {
	msg := "storeclient: " + e.Op
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Wrapped
}

func (e *StoreError) Is(target error) bool {
	return target == ErrUnavailable
}

// IsEmptyReply reports whether err only says that the store answered
// without a status, which is how an empty store replies to an average.
func IsEmptyReply(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Status == 0 && se.Wrapped == nil && se.Message == missingStatus
}
