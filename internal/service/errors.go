package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gfdmit/tierboard/internal/policy"
	"github.com/gfdmit/tierboard/internal/repository"
)

var (
	ErrNotFound     = errors.New("resource no longer exists")
	ErrForbidden    = errors.New("no permission")
	ErrValidation   = errors.New("validation failed")
	ErrStoreFailure = errors.New("store failure")
	ErrNoTransition = policy.ErrNoTransition
)

// ValidationError maps input fields to what is wrong with them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type validation map[string]string

func (v validation) check(ok bool, field, msg string) {
	if !ok {
		if _, set := v[field]; !set {
			v[field] = msg
		}
	}
}

func (v validation) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Fields: v}
}

// StoreError is a backing store failure. The transaction it happened in was
// rolled back, so the call may be retried.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStoreFailure, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreFailure }

func forbidden(reason string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, reason)
}

// classify turns whatever came out of a store or a transaction into one of
// the service errors.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrNoTransition),
		errors.Is(err, ErrStoreFailure):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	default:
		return &StoreError{Op: op, Err: err}
	}
}
