package container

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// Codec converts column elements to their binary and textual forms.
//
// The binary form is used by SaveBin/LoadBin, the textual form by
// SaveXML/LoadXML.
type Codec[T any] interface {
	// Append appends the binary encoding of v to dst.
	Append(dst []byte, v T) ([]byte, error)
	// Decode decodes one element from src into v and returns the bytes consumed.
	Decode(src []byte, v *T) (int, error)
	// Format returns the textual form of v.
	Format(v T) (string, error)
	// Parse parses the textual form produced by Format.
	Parse(s string) (T, error)
}

// FixedCodec encodes fixed-size values (numbers, booleans, arrays and
// structs thereof) with encoding/binary in little-endian order.
type FixedCodec[T any] struct{}

func (FixedCodec[T]) Append(dst []byte, v T) ([]byte, error) {
	return binary.Append(dst, binary.LittleEndian, v)
}

func (FixedCodec[T]) Decode(src []byte, v *T) (int, error) {
	return binary.Decode(src, binary.LittleEndian, v)
}

func (FixedCodec[T]) Format(v T) (string, error) { return formatJSON(v) }

func (FixedCodec[T]) Parse(s string) (T, error) { return parseJSON[T](s) }

// JSONCodec encodes arbitrary values as length-prefixed JSON.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Append(dst []byte, v T) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return dst, err
	}
	dst = binary.AppendUvarint(dst, uint64(len(b)))
	return append(dst, b...), nil
}

func (JSONCodec[T]) Decode(src []byte, v *T) (int, error) {
	l, n := binary.Uvarint(src)
	if n <= 0 {
		return 0, fmt.Errorf("invalid length prefix")
	}
	end := n + int(l)
	if end > len(src) {
		return 0, fmt.Errorf("element extends beyond payload")
	}
	if err := json.Unmarshal(src[n:end], v); err != nil {
		return 0, err
	}
	return end, nil
}

func (JSONCodec[T]) Format(v T) (string, error) { return formatJSON(v) }

func (JSONCodec[T]) Parse(s string) (T, error) { return parseJSON[T](s) }

func formatJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseJSON[T any](s string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(s), &v)
	return v, err
}

// DefaultCodec returns FixedCodec when T has a fixed binary size and
// JSONCodec otherwise.
func DefaultCodec[T any]() Codec[T] {
	var zero T
	if binary.Size(zero) > 0 {
		return FixedCodec[T]{}
	}
	return JSONCodec[T]{}
}

type typeEntry struct {
	name      string
	typ       reflect.Type
	codec     any
	newColumn func(name string) Attribute
}

var registry = struct {
	sync.RWMutex
	byName map[string]*typeEntry
	byType map[reflect.Type]*typeEntry
}{
	byName: make(map[string]*typeEntry),
	byType: make(map[reflect.Type]*typeEntry),
}

// RegisterType makes element type T loadable under name. A nil codec selects
// DefaultCodec. Registering the same (name, T) pair twice is a no-op.
func RegisterType[T any](name string, codec Codec[T]) error {
	if codec == nil {
		codec = DefaultCodec[T]()
	}
	typ := reflect.TypeFor[T]()

	registry.Lock()
	defer registry.Unlock()

	if e, ok := registry.byName[name]; ok {
		if e.typ == typ {
			return nil
		}
		return fmt.Errorf("%w: %q is bound to %s", ErrTypeAlreadyRegistered, name, e.typ)
	}
	if e, ok := registry.byType[typ]; ok {
		return fmt.Errorf("%w: %s is registered as %q", ErrTypeAlreadyRegistered, typ, e.name)
	}

	e := &typeEntry{
		name:  name,
		typ:   typ,
		codec: codec,
		newColumn: func(attrName string) Attribute {
			return newColumn[T](attrName, name, codec)
		},
	}
	registry.byName[name] = e
	registry.byType[typ] = e
	return nil
}

// MustRegisterType is like RegisterType but panics on error.
func MustRegisterType[T any](name string, codec Codec[T]) {
	if err := RegisterType(name, codec); err != nil {
		panic(err)
	}
}

// TypeNameOf returns the registered name of T, or its Go type string when T
// is not registered.
func TypeNameOf[T any]() string {
	name, _ := lookupType[T]()
	return name
}

func lookupType[T any]() (string, Codec[T]) {
	typ := reflect.TypeFor[T]()

	registry.RLock()
	e, ok := registry.byType[typ]
	registry.RUnlock()

	if ok {
		return e.name, e.codec.(Codec[T])
	}
	return typ.String(), DefaultCodec[T]()
}

func lookupTypeName(name string) (*typeEntry, bool) {
	registry.RLock()
	defer registry.RUnlock()
	e, ok := registry.byName[name]
	return e, ok
}

func init() {
	MustRegisterType[bool]("bool", nil)
	MustRegisterType[int8]("int8", nil)
	MustRegisterType[uint8]("uint8", nil)
	MustRegisterType[int16]("int16", nil)
	MustRegisterType[uint16]("uint16", nil)
	MustRegisterType[int32]("int32", nil)
	MustRegisterType[uint32]("uint32", nil)
	MustRegisterType[int64]("int64", nil)
	MustRegisterType[uint64]("uint64", nil)
	MustRegisterType[float32]("float32", nil)
	MustRegisterType[float64]("float64", nil)
	MustRegisterType[string]("string", nil)
	MustRegisterType[[2]float32]("Vec2f", nil)
	MustRegisterType[[3]float32]("Vec3f", nil)
	MustRegisterType[[3]float64]("Vec3d", nil)
}
