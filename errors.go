// FILE: lixenwraith/appsettings/errors.go
package appsettings

import (
	"errors"
	"fmt"
)

var (
	// ErrConversion is matched by every *ConversionError.
	ErrConversion = errors.New("appsettings: conversion failed")
	// ErrKeyNotFound is matched by every *KeyNotFoundError.
	ErrKeyNotFound = errors.New("appsettings: key not found")
	// ErrKindNotSupported is returned by converters and typed stores that cannot produce a kind.
	ErrKindNotSupported = errors.New("appsettings: kind not supported")
	// ErrNamespace is returned when a leaf value is requested but the member is a namespace.
	ErrNamespace = errors.New("appsettings: member is a namespace")
	// ErrInvalidRequest is returned for malformed requests such as an empty member name.
	ErrInvalidRequest = errors.New("appsettings: invalid request")

	ErrConfigNotFound = errors.New("appsettings: configuration file not found")
	ErrCLIParse       = errors.New("appsettings: failed to parse command-line arguments")
	ErrValueSize      = errors.New("appsettings: value exceeds maximum size")
	ErrInvalidPath    = errors.New("appsettings: invalid key path")
	ErrNotRegistered  = errors.New("appsettings: path not registered")
	ErrNoStore        = errors.New("appsettings: no store")
)

// MaxValueSize bounds a single value read from the environment.
const MaxValueSize = 1 << 20

// ConversionError reports raw setting text that could not be parsed as the requested kind.
type ConversionError struct {
	Raw    string
	Target Kind
	Locale Locale
	Err    error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("cannot convert %q to %s using locale %s", e.Raw, e.Target, e.Locale)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// KeyNotFoundError reports a dotted path whose last segment matched neither a
// namespace nor a stored value. Path is the full path from the root facade.
type KeyNotFoundError struct {
	Path string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("configuration key not found: %s", e.Path)
}

func (e *KeyNotFoundError) Is(target error) bool {
	return target == ErrKeyNotFound
}
