package protocol

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/segmentio/encoding/json"
)

// Member is one key/value pair of an Object
type Member struct {
	Key   string
	Value interface{}
}

// Object is a structured value whose members keep the order
// in which they were decoded. Objects assigned to a node become
// containers, one child per member.
type Object []Member

// Get returns the value of the member with this key
func (object Object) Get(key string) (interface{}, bool) {
	for _, member := range object {
		if member.Key == key {
			return member.Value, true
		}
	}

	return nil, false
}

// Keys returns the member keys in order
func (object Object) Keys() []string {
	keys := make([]string, len(object))

	for i, member := range object {
		keys[i] = member.Key
	}

	return keys
}

// set replaces the value of an existing key in place or appends a new member.
func (object Object) set(key string, value interface{}) Object {
	for i, member := range object {
		if member.Key == key {
			object[i].Value = value

			return object
		}
	}

	return append(object, Member{Key: key, Value: value})
}

// MarshalJSON encodes the object with its members in order
func (object Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, member := range object {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(member.Key)

		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(member.Value)

		if err != nil {
			return nil, fmt.Errorf("could not encode member %q: %w", member.Key, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

// Normalize converts a decoded value into its canonical form. Canonical values
// are nil, bool, string, int64, float64, []interface{} and Object. Integral
// floats become int64 so that 1 and 1.0 compare equal.
func Normalize(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case nil, bool, string, int64:
		return t, nil
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint:
		return normalizeUint(uint64(t)), nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		return normalizeUint(t), nil
	case float32:
		return normalizeFloat(float64(t))
	case float64:
		return normalizeFloat(t)
	case number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}

		f, err := t.Float64()

		if err != nil {
			return nil, malformed("invalid number %v", t)
		}

		return normalizeFloat(f)
	case []interface{}:
		array := make([]interface{}, len(t))

		for i, element := range t {
			n, err := Normalize(element)

			if err != nil {
				return nil, err
			}

			array[i] = n
		}

		return array, nil
	case Object:
		object := make(Object, 0, len(t))

		for _, member := range t {
			n, err := Normalize(member.Value)

			if err != nil {
				return nil, err
			}

			object = object.set(member.Key, n)
		}

		return object, nil
	case yaml.MapSlice:
		object := make(Object, 0, len(t))

		for _, item := range t {
			n, err := Normalize(item.Value)

			if err != nil {
				return nil, err
			}

			object = object.set(keyString(item.Key), n)
		}

		return object, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(t))

		for key := range t {
			keys = append(keys, key)
		}

		sort.Strings(keys)
		object := make(Object, 0, len(t))

		for _, key := range keys {
			n, err := Normalize(t[key])

			if err != nil {
				return nil, err
			}

			object = append(object, Member{Key: key, Value: n})
		}

		return object, nil
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))

		for key, value := range t {
			m[keyString(key)] = value
		}

		return Normalize(m)
	}

	return nil, malformed("unsupported value type %T", v)
}

func keyString(key interface{}) string {
	if s, ok := key.(string); ok {
		return s
	}

	return fmt.Sprint(key)
}

func normalizeUint(u uint64) interface{} {
	if u > math.MaxInt64 {
		return float64(u)
	}

	return int64(u)
}

func normalizeFloat(f float64) (interface{}, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, malformed("%v is not a representable number", f)
	}

	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f), nil
	}

	return f, nil
}

// Encode returns the canonical JSON encoding of a value
func Encode(v interface{}) ([]byte, error) {
	n, err := Normalize(v)

	if err != nil {
		return nil, err
	}

	return json.Marshal(n)
}

// Decode parses a JSON encoded value into its canonical form. Objects
// nested in the encoding come back with their keys sorted.
func Decode(b []byte) (interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.UseNumber()

	var v interface{}

	if err := decoder.Decode(&v); err != nil {
		return nil, fmt.Errorf("could not decode value: %s", err)
	}

	return Normalize(v)
}

// Equal reports whether two canonical values are equal. Object member
// order is not significant.
func Equal(a, b interface{}) bool {
	return reflect.DeepEqual(plain(a), plain(b))
}

func plain(v interface{}) interface{} {
	switch t := v.(type) {
	case Object:
		m := make(map[string]interface{}, len(t))

		for _, member := range t {
			m[member.Key] = plain(member.Value)
		}

		return m
	case []interface{}:
		array := make([]interface{}, len(t))

		for i, element := range t {
			array[i] = plain(element)
		}

		return array
	}

	return v
}

// IsNumber reports whether a canonical value is numeric
func IsNumber(v interface{}) bool {
	switch v.(type) {
	case int64, float64:
		return true
	}

	return false
}

// IsArray reports whether a canonical value is an array
func IsArray(v interface{}) bool {
	_, ok := v.([]interface{})

	return ok
}

func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case int64:
		return float64(t)
	case float64:
		return t
	}

	return 0
}

// Add sums two canonical numbers. Integer sums that would overflow
// are carried out in floating point.
func Add(a, b interface{}) (interface{}, bool) {
	if !IsNumber(a) || !IsNumber(b) {
		return nil, false
	}

	x, xInt := a.(int64)
	y, yInt := b.(int64)

	if xInt && yInt {
		sum := x + y

		if (sum > x) == (y > 0) {
			return sum, true
		}
	}

	n, err := normalizeFloat(toFloat(a) + toFloat(b))

	if err != nil {
		return nil, false
	}

	return n, true
}

// Negate returns -v for a canonical number
func Negate(v interface{}) (interface{}, bool) {
	switch t := v.(type) {
	case int64:
		if t == math.MinInt64 {
			return -float64(t), true
		}

		return -t, true
	case float64:
		return -t, true
	}

	return nil, false
}

// Compare orders two canonical numbers. It returns false if
// either value is not a number.
func Compare(a, b interface{}) (int, bool) {
	if !IsNumber(a) || !IsNumber(b) {
		return 0, false
	}

	x, xInt := a.(int64)
	y, yInt := b.(int64)

	if xInt && yInt {
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}

		return 0, true
	}

	return exact(a).Cmp(exact(b)), true
}

// exact converts a canonical number to a big.Float without rounding, so
// that int64 values beyond 2^53 order correctly against floats.
func exact(v interface{}) *big.Float {
	switch t := v.(type) {
	case int64:
		return new(big.Float).SetInt64(t)
	case float64:
		return new(big.Float).SetFloat64(t)
	}

	return new(big.Float)
}
