package analyzer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a decoded JSON object. Keys keep their document order, which is
// what makes field discovery order (and therefore column order) stable.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty Object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// Decode parses data into a RawValue: objects become *Object, arrays []any,
// numbers json.Number. Any syntax error, truncation or trailing data yields
// a *ParseError.
func Decode(data []byte) (any, error) {
	return DecodeReader(bytes.NewReader(data))
}

// DecodeReader is Decode over a stream.
func DecodeReader(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, &ParseError{Offset: dec.InputOffset(), Err: err}
	}

	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return nil, &ParseError{Offset: dec.InputOffset(), Err: err}
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, unexpectedEOF(err)
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		// json.Number, string, bool or nil
		return t, nil
	}
}

func decodeObject(dec *json.Decoder) (*Object, error) {
	obj := NewObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("object key must be a string, got %v", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	arr := make([]any, 0)
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return arr, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return unexpectedEOF(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Canonicalize converts an already-parsed Go value into the RawValue form
// used by the engine. Plain maps are visited in sorted key order. Values the
// engine does not know (structs, typed slices) go through a JSON round trip.
// The input is never mutated.
func Canonicalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, string, json.Number,
		float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return t, nil

	case *Object:
		if t == nil {
			return nil, nil
		}
		out := orderedmap.New[string, any](orderedmap.WithCapacity[string, any](t.Len()))
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			cv, err := Canonicalize(pair.Value)
			if err != nil {
				return nil, err
			}
			out.Set(pair.Key, cv)
		}
		return out, nil

	case map[string]any:
		if t == nil {
			return nil, nil
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := orderedmap.New[string, any](orderedmap.WithCapacity[string, any](len(t)))
		for _, k := range keys {
			cv, err := Canonicalize(t[k])
			if err != nil {
				return nil, err
			}
			out.Set(k, cv)
		}
		return out, nil

	case []any:
		if t == nil {
			return nil, nil
		}
		out := make([]any, 0, len(t))
		for _, e := range t {
			ce, err := Canonicalize(e)
			if err != nil {
				return nil, err
			}
			out = append(out, ce)
		}
		return out, nil

	case json.RawMessage:
		return Decode(t)

	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		return Decode(b)
	}
}

// ToPlain converts a RawValue back into the map[string]any / []any form
// expected by libraries that do not know about ordered objects. Numbers stay
// json.Number.
func ToPlain(v any) any {
	switch t := v.(type) {
	case *Object:
		if t == nil {
			return nil
		}
		out := make(map[string]any, t.Len())
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = ToPlain(pair.Value)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = ToPlain(e)
		}
		return out
	default:
		return v
	}
}

// asObject returns v as an ordered object when it is one.
func asObject(v any) (*Object, bool) {
	obj, ok := v.(*Object)
	return obj, ok && obj != nil
}
