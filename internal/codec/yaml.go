package codec

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLCodec encodes with gopkg.in/yaml.v3. Mappings with non-string keys are
// rejected on decode since tagged data is always string keyed.
type YAMLCodec struct{}

var _ Codec = YAMLCodec{}

func (YAMLCodec) Format() string { return "yaml" }

func (YAMLCodec) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (YAMLCodec) Unmarshal(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return stringKeys(v)
}

// stringKeys rewrites map[any]any nodes, which yaml produces for non-string
// keys, into map[string]any or fails.
func stringKeys(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			n, err := stringKeys(e)
			if err != nil {
				return nil, err
			}
			t[k] = n
		}
		return t, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("yaml: mapping key %v (%T) is not a string", k, k)
			}
			n, err := stringKeys(e)
			if err != nil {
				return nil, err
			}
			out[ks] = n
		}
		return out, nil
	case []any:
		for i, e := range t {
			n, err := stringKeys(e)
			if err != nil {
				return nil, err
			}
			t[i] = n
		}
		return t, nil
	default:
		return v, nil
	}
}
