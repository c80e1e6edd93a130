package remote

import (
	"encoding/json"
	"time"
)

// dateKey marks a temporal value inside a stored JSON body, as in MongoDB
// extended JSON: {"$date": "2024-05-01T09:30:00Z"}.
const dateKey = "$date"

func encodeBody(doc Document) ([]byte, error) {
	return json.Marshal(encodeValue(map[string]any(doc.Without(IDField))))
}

func decodeBody(data []byte) (Document, error) {
	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	for k, v := range doc {
		doc[k] = decodeValue(v)
	}
	return doc, nil
}

func encodeValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return map[string]any{dateKey: t.UTC().Format(time.RFC3339Nano)}
	case Document:
		return encodeValue(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = encodeValue(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = encodeValue(x)
		}
		return out
	default:
		return v
	}
}

func decodeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 1 {
			if s, ok := t[dateKey].(string); ok {
				if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
					return ts.UTC()
				}
			}
		}
		for k, x := range t {
			t[k] = decodeValue(x)
		}
		return t
	case []any:
		for i, x := range t {
			t[i] = decodeValue(x)
		}
		return t
	default:
		return v
	}
}
