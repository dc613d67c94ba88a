package jsonodm

import "github.com/kenfreee/doctrine-json-odm/internal/fields"

// Tagged data constants
const (
	// TypeKey is the reserved key holding the fully-qualified type name of a
	// normalized object. A struct field mapping onto this key is rejected when
	// its type information is built.
	TypeKey = fields.ReservedKey

	// TagName is the struct tag used to rename (`odm:"name"`) or skip
	// (`odm:"-"`) a field.
	TagName = fields.TagName
)

// Chain entry identifiers
const (
	// DefaultObjectNormalizerID identifies the structural object normalizer of
	// the native chain. It is excluded when the native chain is merged with the
	// type-tagging chain so the type-tagging normalizer is consulted instead.
	DefaultObjectNormalizerID = "serializer.normalizer.object"

	// DateTimeNormalizerID identifies the time.Time normalizer.
	DateTimeNormalizerID = "serializer.normalizer.datetime"

	// TextNormalizerID identifies the encoding.TextMarshaler struct normalizer.
	TextNormalizerID = "serializer.normalizer.text"

	// TypedObjectNormalizerID identifies the type-tagging object normalizer.
	TypedObjectNormalizerID = "jsonodm.normalizer.object"
)

// Format names understood by the Serializer codecs.
const (
	FormatJSON          = "json"
	FormatCanonicalJSON = "canonical-json"
	FormatYAML          = "yaml"
	FormatMsgpack       = "msgpack"
)

// Environment variable names
const (
	// EnvFormat selects the default wire format.
	// Default: json
	EnvFormat = "JSONODM_FORMAT"

	// EnvMaxDepth bounds the nesting depth of normalized graphs.
	// Default: 0 (unbounded)
	EnvMaxDepth = "JSONODM_MAX_DEPTH"

	// EnvExcludedNormalizers is a comma separated list of native chain IDs to
	// drop when assembling the chain.
	// Default: serializer.normalizer.object
	EnvExcludedNormalizers = "JSONODM_EXCLUDED_NORMALIZERS"

	// EnvStrictTypes makes unknown type names fail instead of degrading.
	// Default: false
	EnvStrictTypes = "JSONODM_STRICT_TYPES"

	// EnvLogLevel is one of debug, info, warn, error.
	// Default: info
	EnvLogLevel = "JSONODM_LOG_LEVEL"

	// EnvLogFormat is one of json, text, console.
	// Default: json
	EnvLogFormat = "JSONODM_LOG_FORMAT"
)

// Default values
const (
	DefaultFormat    = FormatJSON
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// MaxDepthLimit caps the configurable depth bound.
	MaxDepthLimit = 10000
)
