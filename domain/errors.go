// SPDX-License-Identifier: GPL-3.0-or-later
package domain

import "fmt"

// ConnectionError is fatal: authentication or mailbox selection
// failed. The run aborts; nothing was mutated since the mailbox is
// opened read-only.
type ConnectionError struct {
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed: %v", e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// FetchError covers a single message that could not be fetched; the
// batch skips it and continues.
type FetchError struct {
	Uid   uint32
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("could not fetch message %d: %v", e.Uid, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// DecodeError covers a single message that could not be decoded into a
// MessageRecord; the batch skips it and continues.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not decode message: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// ModelUnavailableError means the model artifact pair could not be
// loaded. Scoring degrades: the ledger row is still written with empty
// risk fields.
type ModelUnavailableError struct {
	Cause error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("risk model unavailable: %v", e.Cause)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Cause }

// PersistError covers a failed ledger append. Fatal for that row only;
// the batch continues with the remaining messages.
type PersistError struct {
	Cause error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("could not persist ledger row: %v", e.Cause)
}

func (e *PersistError) Unwrap() error { return e.Cause }
