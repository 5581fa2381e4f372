package service

import "errors"

var (
	ErrInvalidDataProvided   = errors.New("invalid data provided")
	ErrVersionIsNotSpecified = errors.New("app version is not specified")

	ErrStateNotPersisted = errors.New("auth state was not persisted")
	ErrNoStoredState     = errors.New("no stored auth state")
	ErrCorruptedState    = errors.New("stored auth state is corrupted")
)
