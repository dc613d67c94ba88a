package jsonodm

import (
	"fmt"

	"github.com/kenfreee/doctrine-json-odm/internal/monitoring"
)

// New assembles the type-preserving Serializer described by cfg: the native
// chain minus cfg.ExcludedNormalizers, followed by the type-tagging object
// normalizer. Extra options are applied after the config derived ones.
func New(cfg Config, opts ...SerializerOption) (*Serializer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.logger("serializer")
	hook := monitoring.NewLoggingObservabilityHook(logger)

	typed, err := NewTypedChain(cfg.Registry,
		WithMaxDepth(cfg.MaxDepth),
		WithStrictTypes(cfg.StrictTypes),
		WithObjectObservability(hook),
	)
	if err != nil {
		return nil, fmt.Errorf("build type-tagging chain: %w", err)
	}
	chain := AssembleChain(NewNativeChain(cfg.Registry), typed, cfg.ExcludedNormalizers...)

	base := []SerializerOption{
		WithDefaultFormat(cfg.Format),
		WithLogger(logger),
		WithObservability(hook),
	}
	return NewSerializer(chain, append(base, opts...)...)
}

// NewDefault is New with a zero Config: JSON, DefaultRegistry, degrade on
// unknown types.
func NewDefault(opts ...SerializerOption) (*Serializer, error) {
	return New(Config{}, opts...)
}

// NewNative builds a Serializer over the native chain only. It produces
// untagged data and needs a type name to rebuild objects.
func NewNative(r *Registry, opts ...SerializerOption) (*Serializer, error) {
	if r == nil {
		r = DefaultRegistry
	}
	return NewSerializer(NewNativeChain(r), opts...)
}
