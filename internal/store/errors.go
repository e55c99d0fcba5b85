// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import "errors"

// ErrNotFound is returned by Get when no record has the requested id.
var ErrNotFound = errors.New("document not found")

// StorageError reports a database failure. Op names the failed step:
// connect, migrate, insert, get, list, or close.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "storage " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
