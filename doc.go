// Package jsonodm converts object graphs to plain data and back without
// losing their concrete types.
//
// Every struct met during normalization becomes a map carrying its exported
// fields plus its runtime type name under the reserved "#type" key, at every
// nesting level. Denormalization reads the tag back, rebuilds an instance of
// the named type and fills its fields, so polymorphic fields and
// heterogeneous collections survive a trip through JSON, YAML or MessagePack.
//
// # Tagged data
//
//	{
//	  "#type": "github.com/acme/billing.Invoice",
//	  "Number": "INV-1",
//	  "Lines": [
//	    {"#type": "github.com/acme/billing.Line", "Label": "design", "Amount": 1200}
//	  ]
//	}
//
// Type names are "<import path>.<Name>". Only exported fields are written;
// fields of any visibility are restored. Keys naming no field are dropped.
// An embedded struct of unexported type is itself an unexported field, so the
// exported fields it promotes are not written either.
// A tag naming a type the Registry does not know degrades to the plain field
// map, or fails with ErrUnknownType when StrictTypes is set.
//
// Rebuilt objects come back as pointers (*T). A field or element of a
// non-empty interface type receives the value T instead when T alone
// satisfies the interface; an empty interface keeps *T.
//
// Values implementing encoding.TextMarshaler, such as netip.Addr, are written
// as their text form and restored through encoding.TextUnmarshaler.
//
// # Numbers
//
// JSON integers decode as int64, or uint64 above math.MaxInt64, so 64-bit
// identifiers survive exactly. The canonical-json format writes doubles and
// rejects integers beyond ±(2^53-1) with ErrIntegerRange.
//
// # Quick start
//
//	jsonodm.DefaultRegistry.MustRegister(billing.Invoice{}, billing.Line{})
//
//	s, err := jsonodm.NewDefault()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	data, err := s.Marshal(ctx, invoice, jsonodm.FormatJSON)
//	v, err := s.Unmarshal(ctx, data, "", jsonodm.FormatJSON) // v is *billing.Invoice
//
// # Chains
//
// A Serializer tries its ChainEntry list in order and hands each object to
// the first converter claiming it. NewNativeChain holds the time, text and
// structural converters; AssembleChain merges it with NewTypedChain, leaving
// out the structural object converter so the type-tagging ObjectNormalizer
// sees every struct. New does this from a Config, which can also be loaded
// with LoadConfigFromEnvironment or LoadConfigFromFile.
//
// # Registration
//
// Types are registered once at startup, either through reflection with
// Registry.Register or with accessors generated by cmd/jsonodm-gen from
// structs annotated with //odm:register. The Registry must not change once
// Serializers are in use.
//
// # Storage
//
// providers/sqlite and providers/s3 persist tagged documents together with a
// digest of their canonical JSON form, checked again on every read.
package jsonodm
