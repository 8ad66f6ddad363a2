// Package enumerr defines the error categories reported while expanding
// enumwrap declarations. Every error aborts generation; none is a warning.
package enumerr

import (
	"fmt"
	"go/token"

	"github.com/cockroachdb/errors"
)

// ErrorType defines the category of the error.
type ErrorType string

const (
	TypeMalformed        ErrorType = "MalformedDeclaration"
	TypeVariant          ErrorType = "UnresolvableVariant"
	TypeUnknownInterface ErrorType = "UnknownInterface"
	TypeInternal         ErrorType = "InternalError"
	TypeReceiver         ErrorType = "InvalidReceiver"
)

// EnumError is the interface for all enumwrap errors.
type EnumError interface {
	error
	Type() ErrorType
}

// BaseError provides common fields for enumwrap errors.
type BaseError struct {
	Msg     string
	ErrType ErrorType
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("[%s] %s", e.ErrType, e.Msg)
}

func (e *BaseError) Type() ErrorType {
	return e.ErrType
}

// DeclError is an error tied to a declaration, optionally with its position.
type DeclError struct {
	BaseError
	FilePath string
	Line     int
	Column   int
}

func (e *DeclError) Error() string {
	if e.Line > 0 {
		if e.FilePath != "" {
			return fmt.Sprintf("[%s] %s:%d:%d %s", e.ErrType, e.FilePath, e.Line, e.Column, e.Msg)
		}
		return fmt.Sprintf("[%s] line %d:%d %s", e.ErrType, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("[%s] %s", e.ErrType, e.Msg)
}

// New creates a DeclError without position.
func New(t ErrorType, msg string) *DeclError {
	return &DeclError{BaseError: BaseError{Msg: msg, ErrType: t}}
}

// Newf creates a DeclError with a formatted message.
func Newf(t ErrorType, format string, args ...any) *DeclError {
	return New(t, fmt.Sprintf(format, args...))
}

// At attaches a source position. A position that is already set is kept,
// so the innermost declaration wins.
func (e *DeclError) At(pos token.Position) *DeclError {
	if e.Line > 0 || !pos.IsValid() {
		return e
	}
	e.FilePath = pos.Filename
	e.Line = pos.Line
	e.Column = pos.Column
	return e
}

// UnknownInterface reports an auto_impl name with no registered definition.
func UnknownInterface(name string) error {
	err := Newf(TypeUnknownInterface, "%s is not annotated with //enumwrap:impl or does not exist", name)
	return errors.WithHintf(err, "register %s with //enumwrap:impl before generating a union that implements it", name)
}

// TypeOf returns the category of the first EnumError in err's chain.
func TypeOf(err error) (ErrorType, bool) {
	var ee EnumError
	if errors.As(err, &ee) {
		return ee.Type(), true
	}
	return "", false
}

// Is reports whether err carries an EnumError of type t.
func Is(err error, t ErrorType) bool {
	got, ok := TypeOf(err)
	return ok && got == t
}

// Position attaches pos to the DeclError in err's chain, if any.
func Position(err error, pos token.Position) error {
	var de *DeclError
	if errors.As(err, &de) {
		de.At(pos)
	}
	return err
}
