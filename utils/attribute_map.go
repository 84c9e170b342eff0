package utils

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// AttributeMap is a loosely typed bag of attributes, as found in a JSON config, that is later
// decoded into a concrete config struct.
type AttributeMap map[string]interface{}

// Has reports whether name is set.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}

// Float64 returns the named attribute as a float64, converting JSON style integers, or def if
// the attribute is absent or not numeric.
func (am AttributeMap) Float64(name string, def float64) float64 {
	switch v := am[name].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// Clone returns a shallow copy of the map.
func (am AttributeMap) Clone() AttributeMap {
	if am == nil {
		return nil
	}
	cloned := make(AttributeMap, len(am))
	for k, v := range am {
		cloned[k] = v
	}
	return cloned
}

// DecodeAttributes decodes attributes into a freshly allocated T using the json field tags of
// T. Attributes that do not correspond to a field are an error.
func DecodeAttributes[T any](attributes AttributeMap) (*T, error) {
	out := new(T)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(map[string]interface{}(attributes)); err != nil {
		return nil, errors.Wrapf(err, "failed to decode attributes into %T", out)
	}
	return out, nil
}
