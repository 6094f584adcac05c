package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Shape is the form an upstream resource body arrived in.
type Shape int

const (
	ShapeAbsent Shape = iota
	ShapeList
	ShapeWrapped
	ShapeObject
	ShapeScalar
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeWrapped:
		return "wrapped"
	case ShapeObject:
		return "object"
	case ShapeScalar:
		return "scalar"
	default:
		return "absent"
	}
}

// Payload is a decoded resource body tagged with its Shape.
type Payload struct {
	shape  Shape
	list   []any
	object Record
	scalar any
}

// Absent is the payload of a resource that failed or returned nothing.
func Absent() Payload { return Payload{} }

// ParsePayload decodes raw JSON keeping numbers as json.Number.
func ParsePayload(raw []byte) (Payload, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Absent(), nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}
	return NewPayload(v), nil
}

func NewPayload(v any) Payload {
	switch x := v.(type) {
	case nil:
		return Absent()
	case []any:
		return Payload{shape: ShapeList, list: x}
	case map[string]any:
		return Payload{shape: ShapeObject, object: Record(x)}
	case Record:
		return Payload{shape: ShapeObject, object: x}
	default:
		return Payload{shape: ShapeScalar, scalar: x}
	}
}

func (p Payload) Shape() Shape { return p.shape }

func (p Payload) Present() bool { return p.shape != ShapeAbsent }

// Unwrap turns an object carrying an array under one of keys into a wrapped
// list. Any other payload is returned unchanged.
func (p Payload) Unwrap(keys ...string) Payload {
	if p.shape != ShapeObject {
		return p
	}
	for _, key := range keys {
		if items, ok := p.object[key].([]any); ok {
			return Payload{shape: ShapeWrapped, list: items}
		}
	}
	return p
}

// Records lists the object items of a list or wrapped payload.
func (p Payload) Records() []Record {
	if p.shape != ShapeList && p.shape != ShapeWrapped {
		return nil
	}
	out := make([]Record, 0, len(p.list))
	for _, item := range p.list {
		if rec, ok := asRecord(item); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Object returns the payload object, descending into the first key that
// holds a nested object.
func (p Payload) Object(keys ...string) (Record, bool) {
	if p.shape != ShapeObject {
		return nil, false
	}
	for _, key := range keys {
		if nested, ok := p.object.Record(key); ok {
			return nested, true
		}
	}
	return p.object, true
}

func (p Payload) Number() (float64, bool) {
	if p.shape != ShapeScalar {
		return 0, false
	}
	return asFloat(p.scalar)
}

// Record is a JSON object with priority-chain accessors: every getter takes
// keys in priority order and returns the first usable value.
type Record map[string]any

func (r Record) Text(keys ...string) string {
	for _, key := range keys {
		if s := asString(r[key]); s != "" {
			return s
		}
	}
	return ""
}

func (r Record) Float(keys ...string) (float64, bool) {
	for _, key := range keys {
		if f, ok := asFloat(r[key]); ok {
			return f, true
		}
	}
	return 0, false
}

func (r Record) Int(keys ...string) (int64, bool) {
	f, ok := r.Float(keys...)
	if !ok {
		return 0, false
	}
	return int64(math.Round(f)), true
}

func (r Record) Bool(keys ...string) bool {
	for _, key := range keys {
		switch x := r[key].(type) {
		case bool:
			return x
		case string:
			if b, err := strconv.ParseBool(x); err == nil {
				return b
			}
		}
	}
	return false
}

func (r Record) Record(key string) (Record, bool) {
	return asRecord(r[key])
}

func (r Record) List(key string) ([]any, bool) {
	items, ok := r[key].([]any)
	return items, ok
}

func asRecord(v any) (Record, bool) {
	switch x := v.(type) {
	case map[string]any:
		return Record(x), true
	case Record:
		return x, true
	default:
		return nil, false
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case bool, map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
