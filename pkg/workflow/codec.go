// Copyright © 2018 One Concern

package workflow

// Codec serializes parameter values which are not plain strings
type Codec interface {
	Encode(v interface{}) (string, error)
	Decode(s string) (interface{}, error)
}

// TryDecode decodes a value, and tells if it succeeded.
// On failure the raw string is returned.
func TryDecode(c Codec, s string) (interface{}, bool) {
	if c == nil {
		return s, false
	}
	v, err := c.Decode(s)
	if err != nil {
		return s, false
	}
	return v, true
}

// JSONCodec encodes values as JSON
type JSONCodec struct{}

// Encode a value as JSON
func (JSONCodec) Encode(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode a JSON value
func (JSONCodec) Decode(s string) (interface{}, error) {
	var v interface{}
	if err := json.UnmarshalFromString(s, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// isStringType tells if a declared parameter type denotes a plain string
func isStringType(t string) bool {
	switch t {
	case "str", "string":
		return true
	default:
		return false
	}
}
