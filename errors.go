package jsonodm

import (
	"errors"
	"fmt"

	"github.com/kenfreee/doctrine-json-odm/internal/codec"
	"github.com/kenfreee/doctrine-json-odm/internal/fields"
)

var (
	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidSerializer    = errors.New("serializer must support both normalization and denormalization")
	ErrInvalidNormalizer    = errors.New("normalizer must also implement denormalization")
	ErrSerializerNotSet     = errors.New("serializer not set")

	// Dispatch errors
	ErrNoNormalizer   = errors.New("no normalizer supports the value")
	ErrNoDenormalizer = errors.New("no denormalizer supports the data")

	// Type errors
	ErrUnreadableType  = errors.New("unreadable type")
	ErrUnknownType     = errors.New("unknown type")
	ErrDuplicateType   = errors.New("type already registered")
	ErrUnsupportedType = errors.New("unsupported type")
	ErrReservedField   = fields.ErrReservedField

	// Value errors
	ErrAssignment        = errors.New("field assignment failed")
	ErrMaxDepthExceeded  = errors.New("maximum depth exceeded")
	ErrUnsupportedFormat = codec.ErrUnsupportedFormat
	ErrIntegerRange      = codec.ErrIntegerRange

	// Storage errors
	ErrNotFound = errors.New("document not found")
)

// Operation names the step an error occurred in.
type Operation int8

const (
	OpUnknown Operation = iota
	OpNormalize
	OpDenormalize
	OpRegister
	OpAssign
)

func (o Operation) String() string {
	switch o {
	case OpNormalize:
		return "normalize"
	case OpDenormalize:
		return "denormalize"
	case OpRegister:
		return "register"
	case OpAssign:
		return "assign"
	default:
		return "unknown"
	}
}

func NewUnreadableTypeError(typeName string, op Operation, cause error) error {
	return fmt.Errorf("%w: cannot %s %s: %w", ErrUnreadableType, op, typeName, cause)
}

func NewUnknownTypeError(typeName string, op Operation) error {
	return fmt.Errorf("%w: %q is not registered, cannot %s", ErrUnknownType, typeName, op)
}

func NewDuplicateTypeError(typeName string) error {
	return fmt.Errorf("%w: %q", ErrDuplicateType, typeName)
}

func NewUnsupportedTypeError(typeName string, op Operation) error {
	return fmt.Errorf("%w: %s cannot be used for %s, expected a struct", ErrUnsupportedType, typeName, op)
}

func NewAssignmentError(typeName, fieldName string, cause error) error {
	return fmt.Errorf("%w: field '%s' of %s: %w", ErrAssignment, fieldName, typeName, cause)
}

func NewNoNormalizerError(value any, format string) error {
	return fmt.Errorf("%w: %T (format %q)", ErrNoNormalizer, value, format)
}

func NewNoDenormalizerError(data any, typeName, format string) error {
	return fmt.Errorf("%w: %T into %q (format %q)", ErrNoDenormalizer, data, typeName, format)
}

func NewMaxDepthError(limit int, op Operation) error {
	return fmt.Errorf("%w: %s went deeper than %d levels", ErrMaxDepthExceeded, op, limit)
}

func NewInvalidSerializerError(got any) error {
	return fmt.Errorf("%w: got %T", ErrInvalidSerializer, got)
}
