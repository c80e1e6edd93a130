// Package mapper translates between remote documents and local rows.
//
// A Mapper is built from a models.Schema and is pure: it never touches a
// store. ToLocal is used by the pull phase, ToRemote by the push phase.
//
// Representation per field kind:
//
//	kind    local (SQLite)          remote (document)
//	text    TEXT                    string
//	number  REAL                    double
//	time    ISO-8601 TEXT           native datetime
//	list    JSON TEXT               array of documents
//
// Missing or null remote fields take the schema default. A value that cannot
// be represented locally fails the whole record with an error matching
// ErrMalformedField; callers skip that record and continue.
package mapper

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/erpsync/internal/models"
	"github.com/dmitrijs2005/erpsync/internal/remote"
)

// ErrMalformedField is matched by every FieldError.
var ErrMalformedField = errors.New("malformed field")

// FieldError reports a field value that does not fit its kind.
type FieldError struct {
	Field string
	Kind  models.Kind
	Value any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("malformed field %q: %T %v is not a valid %s", e.Field, e.Value, e.Value, e.Kind)
}

func (e *FieldError) Unwrap() error {
	return ErrMalformedField
}

// Mapper converts records of one entity type.
type Mapper struct {
	schema *models.Schema
}

func New(schema *models.Schema) *Mapper {
	return &Mapper{schema: schema}
}

func (m *Mapper) Schema() *models.Schema {
	return m.schema
}

// ToLocal returns the remote identifier of doc and the local column values
// for every schema field.
func (m *Mapper) ToLocal(doc remote.Document) (string, map[string]any, error) {
	id := doc.ID()
	if id == "" {
		return "", nil, &FieldError{Field: remote.IDField, Kind: models.KindText, Value: doc[remote.IDField]}
	}

	fields := make(map[string]any, len(m.schema.Fields))
	for _, f := range m.schema.Fields {
		v, ok := doc[f.Name]
		if !ok || v == nil {
			v = f.Default
		}

		lv, err := toLocalValue(f, v)
		if err != nil {
			return "", nil, err
		}
		fields[f.Name] = lv
	}
	return id, fields, nil
}

func toLocalValue(f models.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	bad := &FieldError{Field: f.Name, Kind: f.Kind, Value: v}

	switch f.Kind {
	case models.KindNumber:
		n, ok := asNumber(v)
		if !ok {
			return nil, bad
		}
		return n, nil

	case models.KindList:
		items, ok := asDocuments(v)
		if !ok {
			return nil, bad
		}
		b, err := json.Marshal(items)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", bad, err)
		}
		return string(b), nil

	case models.KindTime:
		if t, ok := v.(time.Time); ok {
			return FormatTime(t), nil
		}
		// Values stored by older clients as text pass through unchanged.
		if !isScalar(v) {
			return nil, bad
		}
		return v, nil

	default:
		switch t := v.(type) {
		case string:
			return t, nil
		case time.Time:
			return FormatTime(t), nil
		}
		if !isScalar(v) {
			return nil, bad
		}
		return fmt.Sprint(v), nil
	}
}

// ToRemote builds the document pushed for rec. Null values take the schema
// default. Local bookkeeping columns are never part of the result.
func (m *Mapper) ToRemote(rec models.Record) (remote.Document, error) {
	doc := make(remote.Document, len(m.schema.Fields))
	for _, f := range m.schema.Fields {
		v := rec.Fields[f.Name]

		switch f.Kind {
		case models.KindTime:
			if s, ok := v.(string); ok {
				if t, err := ParseTime(s); err == nil {
					v = t
				}
			}

		case models.KindList:
			items, err := decodeList(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", &FieldError{Field: f.Name, Kind: f.Kind, Value: v}, err)
			}
			v = items

		default:
			if v == nil {
				v = f.Default
			}
		}

		doc[f.Name] = v
	}
	return doc, nil
}

func decodeList(v any) ([]any, error) {
	var raw []byte
	switch t := v.(type) {
	case nil:
		return []any{}, nil
	case string:
		raw = []byte(t)
	case []byte:
		raw = t
	default:
		return nil, fmt.Errorf("unexpected %T", v)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return []any{}, nil
	}

	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []any{}
	}
	return items, nil
}

func asNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		p, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asDocuments(v any) ([]any, bool) {
	switch items := v.(type) {
	case []any:
		for _, it := range items {
			if _, ok := it.(map[string]any); !ok {
				return nil, false
			}
		}
		return items, true
	case []map[string]any:
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = it
		}
		return out, true
	}
	return nil, false
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}
