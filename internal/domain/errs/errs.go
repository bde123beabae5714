// Package errs — виды ошибок для репозиториев, сервиса поставок и HTTP.
// Вид проверяем через errors.Is, подробности достаём через errors.As.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrValidation       = errors.New("validation failed")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrStorage          = errors.New("storage error")
)

type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Ref)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func NotFound(entity, ref string) error {
	return &NotFoundError{Entity: entity, Ref: ref}
}

// ConflictError — нарушение уникальности. Constraint — имя ограничения,
// если хранилище его знает.
type ConflictError struct {
	Entity     string
	Constraint string
}

func (e *ConflictError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s already exists (unique constraint %s)", e.Entity, e.Constraint)
	}
	return fmt.Sprintf("%s already exists (unique constraint)", e.Entity)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func Conflict(entity, constraint string) error {
	return &ConflictError{Entity: entity, Constraint: constraint}
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

type CapacityExceededError struct {
	Requested int64
	Available int64
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("delivery cannot be processed because it exceeds current warehouse capacity: requested %d, available %d",
		e.Requested, e.Available)
}

func (e *CapacityExceededError) Is(target error) bool { return target == ErrCapacityExceeded }

// StorageError — сбой хранилища. В тексте детали драйвера, только для логов.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func Storage(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// Known — err уже относится к одному из видов выше.
func Known(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrStorage)
}
