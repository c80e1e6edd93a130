package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/erpsync/internal/models"
	"github.com/dmitrijs2005/erpsync/internal/remote"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func TestToLocal_AccountDefaults(t *testing.T) {
	m := New(models.MustSchema(models.EntityAccount))

	id, fields, err := m.ToLocal(remote.Document{
		"_id":        "r1",
		"name":       "Cash",
		"created_at": created,
		"extra":      "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", id)

	want := map[string]any{
		"name":          "Cash",
		"code":          nil,
		"type":          nil,
		"parent_id":     nil,
		"balance":       0.0,
		"currency":      models.DefaultCurrency,
		"description":   nil,
		"created_at":    "2024-05-01T09:30:00Z",
		"last_modified": nil,
	}
	assert.Empty(t, cmp.Diff(want, fields))
}

func TestToLocal_StatusDefaults(t *testing.T) {
	tests := []struct {
		entity models.EntityType
		want   string
	}{
		{models.EntityClient, models.ClientStatusActive},
		{models.EntityProject, models.ProjectStatusActive},
		{models.EntityInvoice, models.InvoiceStatusDraft},
	}
	for _, tt := range tests {
		t.Run(string(tt.entity), func(t *testing.T) {
			_, fields, err := New(models.MustSchema(tt.entity)).ToLocal(remote.Document{"_id": "x", "status": nil})
			require.NoError(t, err)
			assert.Equal(t, tt.want, fields["status"])
		})
	}
}

func TestToLocal_Numbers(t *testing.T) {
	m := New(models.MustSchema(models.EntityPayment))

	tests := []struct {
		name    string
		in      any
		want    float64
		wantErr bool
	}{
		{name: "float", in: 12.5, want: 12.5},
		{name: "int32", in: int32(7), want: 7},
		{name: "int64", in: int64(1 << 40), want: float64(1 << 40)},
		{name: "numeric text", in: " 99.90 ", want: 99.9},
		{name: "json number", in: json.Number("3"), want: 3},
		{name: "word", in: "lots", wantErr: true},
		{name: "bool", in: true, wantErr: true},
		{name: "document", in: map[string]any{"v": 1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, fields, err := m.ToLocal(remote.Document{"_id": "p", "amount": tt.in})
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedField)
				var fe *FieldError
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, "amount", fe.Field)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, fields["amount"], 1e-9)
		})
	}
}

func TestToLocal_Lists(t *testing.T) {
	m := New(models.MustSchema(models.EntityInvoice))

	_, fields, err := m.ToLocal(remote.Document{
		"_id":        "inv",
		"issue_date": created,
		"items": []any{
			map[string]any{"desc": "design", "qty": int64(2), "price": 150.0},
		},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"desc":"design","qty":2,"price":150}]`, fields["items"].(string))
	assert.Equal(t, "2024-05-01T09:30:00Z", fields["issue_date"])

	_, fields, err = m.ToLocal(remote.Document{"_id": "inv"})
	require.NoError(t, err)
	assert.Equal(t, "[]", fields["items"])

	_, _, err = m.ToLocal(remote.Document{"_id": "inv", "items": []any{"not a document"}})
	require.ErrorIs(t, err, ErrMalformedField)

	_, _, err = m.ToLocal(remote.Document{"_id": "inv", "items": "[]"})
	require.ErrorIs(t, err, ErrMalformedField)
}

func TestToLocal_TextAndTime(t *testing.T) {
	m := New(models.MustSchema(models.EntityClient))

	_, fields, err := m.ToLocal(remote.Document{
		"_id":           "c",
		"name":          "Acme",
		"phone":         int64(2012345),
		"last_modified": "2023-12-31 23:59:59",
	})
	require.NoError(t, err)
	assert.Equal(t, "2012345", fields["phone"])
	assert.Equal(t, "2023-12-31 23:59:59", fields["last_modified"], "non temporal values pass through")

	_, _, err = m.ToLocal(remote.Document{"_id": "c", "name": map[string]any{"first": "A"}})
	require.ErrorIs(t, err, ErrMalformedField)

	_, _, err = m.ToLocal(remote.Document{"_id": "c", "created_at": []any{1}})
	require.ErrorIs(t, err, ErrMalformedField)
}

func TestToLocal_MissingID(t *testing.T) {
	_, _, err := New(models.MustSchema(models.EntityClient)).ToLocal(remote.Document{"name": "x"})
	require.ErrorIs(t, err, ErrMalformedField)
}

func TestToRemote(t *testing.T) {
	m := New(models.MustSchema(models.EntityJournalEntry))

	doc, err := m.ToRemote(models.Record{
		LocalID:  3,
		RemoteID: "j1",
		Status:   models.StatusModifiedOffline,
		Fields: map[string]any{
			"date":          "2024-05-01T09:30:00Z",
			"description":   "rent",
			"lines":         `[{"account":"1000","debit":50}]`,
			"created_at":    "not a date",
			"last_modified": nil,
		},
	})
	require.NoError(t, err)

	want := remote.Document{
		"date":                created,
		"description":         "rent",
		"lines":               []any{map[string]any{"account": "1000", "debit": 50.0}},
		"related_document_id": nil,
		"created_at":          "not a date",
		"last_modified":       nil,
	}
	assert.Empty(t, cmp.Diff(want, doc))
	for _, k := range []string{"id", "_id", "_mongo_id", "sync_status"} {
		assert.NotContains(t, doc, k)
	}
}

func TestToRemote_BadListJSON(t *testing.T) {
	m := New(models.MustSchema(models.EntityProject))

	_, err := m.ToRemote(models.Record{Fields: map[string]any{"items": "{broken"}})
	require.ErrorIs(t, err, ErrMalformedField)

	doc, err := m.ToRemote(models.Record{Fields: map[string]any{"items": ""}})
	require.NoError(t, err)
	assert.Equal(t, []any{}, doc["items"])
	assert.Equal(t, 0.0, doc["subtotal"])
}

func TestRoundTrip_PreservesTemporalAndNested(t *testing.T) {
	m := New(models.MustSchema(models.EntityInvoice))
	in := remote.Document{
		"_id":            "inv-1",
		"invoice_number": "INV-1",
		"issue_date":     created,
		"due_date":       created.Add(30 * 24 * time.Hour),
		"items":          []any{map[string]any{"desc": "design", "qty": 2.0}},
		"total_amount":   300.0,
	}

	id, fields, err := m.ToLocal(in)
	require.NoError(t, err)

	out, err := m.ToRemote(models.Record{RemoteID: id, Fields: fields})
	require.NoError(t, err)

	assert.True(t, created.Equal(out["issue_date"].(time.Time)))
	assert.True(t, created.Add(30*24*time.Hour).Equal(out["due_date"].(time.Time)))
	assert.Equal(t, in["items"], out["items"])
	assert.Equal(t, "INV-1", out["invoice_number"])
	assert.Equal(t, models.InvoiceStatusDraft, out["status"])
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2024-05-01T09:30:00Z", want: created},
		{in: "2024-05-01T11:30:00+02:00", want: created},
		{in: "2024-05-01T09:30:00.000001", want: created.Add(time.Microsecond)},
		{in: "2024-05-01 09:30:00", want: created},
		{in: "2024-05-01", want: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{in: "", wantErr: true},
		{in: "May 1st", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTime(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
	assert.Equal(t, "2024-05-01T09:30:00Z", FormatTime(created.In(time.FixedZone("EET", 7200))))
}
