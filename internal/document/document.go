// Package document holds the encoding shared by the document stores: a
// tagged JSON body, its type name and a content digest.
package document

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"golang.org/x/crypto/blake2b"
)

// ErrDigestMismatch is returned when a stored body no longer matches the
// digest recorded with it.
var ErrDigestMismatch = errors.New("document digest mismatch")

// Serializer is the part of *jsonodm.Serializer the stores rely on.
type Serializer interface {
	Marshal(ctx context.Context, v any, format string) ([]byte, error)
	Unmarshal(ctx context.Context, data []byte, typeName, format string) (any, error)
	UnmarshalInto(ctx context.Context, data []byte, dst any, format string) error
}

// Document is one encoded value.
type Document struct {
	ID     string
	Type   string
	Body   []byte
	Digest string
}

// Encode marshals v as tagged JSON. typeName is recorded alongside the body
// and may be empty for values that are not objects.
func Encode(ctx context.Context, s Serializer, id, typeName string, v any) (Document, error) {
	body, err := s.Marshal(ctx, v, "json")
	if err != nil {
		return Document{}, fmt.Errorf("marshal document %s: %w", id, err)
	}
	digest, err := Digest(body)
	if err != nil {
		return Document{}, fmt.Errorf("digest document %s: %w", id, err)
	}
	return Document{ID: id, Type: typeName, Body: body, Digest: digest}, nil
}

// Digest returns the hex BLAKE2b-256 of the RFC 8785 canonical form of a
// JSON body, so formatting and key order do not change it. Canonical numbers
// are doubles: integers beyond 2^53 are digested in their rounded form.
func Digest(body []byte) (string, error) {
	canonical, err := jsoncanonicalizer.Transform(body)
	if err != nil {
		return "", fmt.Errorf("canonicalize body: %w", err)
	}
	sum := blake2b.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Verify checks the body of d against its recorded digest. Documents without
// a digest are accepted.
func Verify(d Document) error {
	if d.Digest == "" {
		return nil
	}
	got, err := Digest(d.Body)
	if err != nil {
		return err
	}
	if got != d.Digest {
		return fmt.Errorf("%w: document %s", ErrDigestMismatch, d.ID)
	}
	return nil
}

// Decode verifies d and denormalizes its body.
func Decode(ctx context.Context, s Serializer, d Document) (any, error) {
	if err := Verify(d); err != nil {
		return nil, err
	}
	v, err := s.Unmarshal(ctx, d.Body, d.Type, "json")
	if err != nil {
		return nil, fmt.Errorf("unmarshal document %s: %w", d.ID, err)
	}
	return v, nil
}

// DecodeInto verifies d and stores its body in dst.
func DecodeInto(ctx context.Context, s Serializer, d Document, dst any) error {
	if err := Verify(d); err != nil {
		return err
	}
	if err := s.UnmarshalInto(ctx, d.Body, dst, "json"); err != nil {
		return fmt.Errorf("unmarshal document %s: %w", d.ID, err)
	}
	return nil
}
