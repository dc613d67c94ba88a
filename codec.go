package jsonodm

import "github.com/kenfreee/doctrine-json-odm/internal/codec"

// Built-in codecs, usable with WithCodecs to override a default.
type (
	JSONCodec          = codec.JSONCodec
	CanonicalJSONCodec = codec.CanonicalJSONCodec
	YAMLCodec          = codec.YAMLCodec
	MsgpackCodec       = codec.MsgpackCodec
)
