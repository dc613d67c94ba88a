package jsonodm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationString(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpNormalize, "normalize"},
		{OpDenormalize, "denormalize"},
		{OpRegister, "register"},
		{OpAssign, "assign"},
		{OpUnknown, "unknown"},
		{Operation(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{"unreadable", NewUnreadableTypeError("a.T", OpRegister, cause), ErrUnreadableType, "cannot register a.T"},
		{"unknown", NewUnknownTypeError("a.T", OpDenormalize), ErrUnknownType, `"a.T" is not registered`},
		{"duplicate", NewDuplicateTypeError("a.T"), ErrDuplicateType, `"a.T"`},
		{"unsupported", NewUnsupportedTypeError("int", OpNormalize), ErrUnsupportedType, "expected a struct"},
		{"assignment", NewAssignmentError("a.T", "Name", cause), ErrAssignment, "field 'Name' of a.T"},
		{"no normalizer", NewNoNormalizerError(1, "json"), ErrNoNormalizer, "int"},
		{"no denormalizer", NewNoDenormalizerError(1, "a.T", "json"), ErrNoDenormalizer, `int into "a.T"`},
		{"max depth", NewMaxDepthError(3, OpNormalize), ErrMaxDepthExceeded, "deeper than 3 levels"},
		{"invalid serializer", NewInvalidSerializerError(nil), ErrInvalidSerializer, "<nil>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Contains(t, tt.err.Error(), tt.contains)
		})
	}

	assert.ErrorIs(t, NewUnreadableTypeError("a.T", OpRegister, cause), cause)
}
