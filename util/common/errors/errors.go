package errors

import (
	"errors"
	"fmt"
)

// Common errors that can be used across packages
var (
	ErrUnsupportedContainer = errors.New("unsupported container")
	ErrUnsupportedHash      = errors.New("unsupported hash type")
	ErrUnsupportedTarget    = errors.New("unsupported deploy target")
	ErrEmptyPassword        = errors.New("SSH password can not be empty")
)

// ValidationError represents an error that occurs during validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// FileError represents an error that occurs during file operations
type FileError struct {
	Path    string
	Op      string
	Wrapped error
}

func (e *FileError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s operation failed on %s: %v", e.Op, e.Path, e.Wrapped)
	}
	return fmt.Sprintf("%s operation failed on %s", e.Op, e.Path)
}

func (e *FileError) Unwrap() error {
	return e.Wrapped
}

// NewFileError creates a new FileError
func NewFileError(path, op string, wrapped error) error {
	return &FileError{
		Path:    path,
		Op:      op,
		Wrapped: wrapped,
	}
}

// ConfigurationError is raised before any pipeline step runs: the
// configuration could not be read, parsed or names something unsupported.
type ConfigurationError struct {
	Message string
	Wrapped error
}

func (e *ConfigurationError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Wrapped)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Wrapped
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(message string, wrapped error) error {
	return &ConfigurationError{
		Message: message,
		Wrapped: wrapped,
	}
}

// UnsupportedKind names the registry an UnsupportedError came from.
type UnsupportedKind string

const (
	KindContainer UnsupportedKind = "container"
	KindHash      UnsupportedKind = "hash"
	KindTarget    UnsupportedKind = "deploy target"
)

// UnsupportedError is returned by the registries for unknown names.
type UnsupportedError struct {
	Kind UnsupportedKind
	Name string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("the %s %s type is unsupported", e.Name, e.Kind)
}

// Unwrap maps the error onto the sentinel for its kind so callers can use
// errors.Is(err, ErrUnsupportedHash) and friends.
func (e *UnsupportedError) Unwrap() error {
	switch e.Kind {
	case KindContainer:
		return ErrUnsupportedContainer
	case KindHash:
		return ErrUnsupportedHash
	case KindTarget:
		return ErrUnsupportedTarget
	}
	return nil
}

// NewUnsupportedError creates a new UnsupportedError
func NewUnsupportedError(kind UnsupportedKind, name string) error {
	return &UnsupportedError{
		Kind: kind,
		Name: name,
	}
}

// CollectionError represents an ingredient that could not be resolved
type CollectionError struct {
	Source  string
	Message string
	Wrapped error
}

func (e *CollectionError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("ingredient %s: %s: %v", e.Source, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("ingredient %s: %s", e.Source, e.Message)
}

func (e *CollectionError) Unwrap() error {
	return e.Wrapped
}

// NewCollectionError creates a new CollectionError
func NewCollectionError(source, message string, wrapped error) error {
	return &CollectionError{
		Source:  source,
		Message: message,
		Wrapped: wrapped,
	}
}

// ArchiveError represents an I/O failure while building one archive
type ArchiveError struct {
	Container string
	Path      string
	Wrapped   error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("%s archive failed on %s: %v", e.Container, e.Path, e.Wrapped)
}

func (e *ArchiveError) Unwrap() error {
	return e.Wrapped
}

// NewArchiveError creates a new ArchiveError
func NewArchiveError(container, path string, wrapped error) error {
	return &ArchiveError{
		Container: container,
		Path:      path,
		Wrapped:   wrapped,
	}
}

// DeployError represents the failure of a single deploy target. It never
// carries credentials.
type DeployError struct {
	Target  string
	Message string
	Wrapped error
}

func (e *DeployError) Error() string {
	switch {
	case e.Message != "" && e.Wrapped != nil:
		return fmt.Sprintf("%s: %s: %v", e.Target, e.Message, e.Wrapped)
	case e.Wrapped != nil:
		return fmt.Sprintf("%s: %v", e.Target, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Target, e.Message)
}

func (e *DeployError) Unwrap() error {
	return e.Wrapped
}

// NewDeployError creates a new DeployError
func NewDeployError(target, message string, wrapped error) error {
	return &DeployError{
		Target:  target,
		Message: message,
		Wrapped: wrapped,
	}
}

// HookError represents a pre/post cook hook that could not be launched, or
// that returned non-zero while hook failures are configured to be fatal.
type HookError struct {
	Hook     string
	ExitCode int
	Wrapped  error
}

func (e *HookError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s failed: %v", e.Hook, e.Wrapped)
	}
	return fmt.Sprintf("%s returned %d", e.Hook, e.ExitCode)
}

func (e *HookError) Unwrap() error {
	return e.Wrapped
}

// NewHookError creates a new HookError
func NewHookError(hook string, exitCode int, wrapped error) error {
	return &HookError{
		Hook:     hook,
		ExitCode: exitCode,
		Wrapped:  wrapped,
	}
}

// Is reports whether target matches err.
// It enables errors.Is() to work with our custom error types.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// It enables errors.As() to work with our custom error types.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
