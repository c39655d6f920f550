package datasets

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// UnknownDatasetError is returned when a name is not in the registry.
type UnknownDatasetError struct {
	Name string
}

func (e *UnknownDatasetError) Error() string {
	return fmt.Sprintf("ngbench: unknown dataset %q (available: %s)", e.Name, strings.Join(Names(), ", "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *UnknownDatasetError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("dataset", e.Name).
		Strs("available", Names()).
		Str("type", "UnknownDatasetError")
}

// NewUnknownDatasetError creates an UnknownDatasetError with a stack trace.
func NewUnknownDatasetError(name string) error {
	return errors.WithStack(&UnknownDatasetError{Name: name})
}

// LoadError wraps a failure to fetch, open or parse a dataset.
type LoadError struct {
	Dataset string
	Source  string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("ngbench: load dataset %s from %s: %v", e.Dataset, e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *LoadError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("dataset", e.Dataset).
		Str("source", e.Source).
		Str("type", "LoadError")
}

func newLoadError(name, source string, err error) error {
	return errors.WithStack(&LoadError{Dataset: name, Source: source, Err: err})
}
