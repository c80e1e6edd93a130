package models

import "fmt"

// Kind describes how a field is represented on both sides of the sync.
type Kind int

const (
	// KindText is stored as TEXT locally and as a string remotely.
	KindText Kind = iota
	// KindNumber is stored as REAL locally and as a double remotely.
	KindNumber
	// KindTime is ISO-8601 TEXT locally and a native datetime remotely.
	KindTime
	// KindList is a JSON encoded TEXT locally and an array of documents remotely.
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	case KindList:
		return "list"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Field is a single entity column.
type Field struct {
	Name string
	Kind Kind
	// Default is used when the remote document lacks the field. Nil means NULL.
	Default any
}

// Schema describes one entity type on both stores.
type Schema struct {
	Entity     EntityType
	Collection string
	Table      string
	Fields     []Field
}

// Columns returns the entity column names in declaration order.
func (s *Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Name
	}
	return cols
}

// Field returns the field named name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

const (
	// DefaultCurrency applies to every monetary entity without a currency.
	DefaultCurrency = "EGP"

	// Status values written by the desktop editor.
	ClientStatusActive  = "نشط"
	ProjectStatusActive = "نشط"
	InvoiceStatusDraft  = "مسودة"
)

func text(name string) Field { return Field{Name: name, Kind: KindText} }
func textOr(name, def string) Field { return Field{Name: name, Kind: KindText, Default: def} }
func number(name string) Field { return Field{Name: name, Kind: KindNumber, Default: 0.0} }
func timestamp(name string) Field { return Field{Name: name, Kind: KindTime} }
func list(name string) Field { return Field{Name: name, Kind: KindList, Default: []any{}} }
func audit(fields ...Field) []Field {
	return append(fields, timestamp("created_at"), timestamp("last_modified"))
}

var schemas = map[EntityType]*Schema{
	EntityAccount: {
		Entity:     EntityAccount,
		Collection: "accounts",
		Table:      "accounts",
		Fields: audit(
			text("name"),
			text("code"),
			text("type"),
			text("parent_id"),
			number("balance"),
			textOr("currency", DefaultCurrency),
			text("description"),
		),
	},
	EntityClient: {
		Entity:     EntityClient,
		Collection: "clients",
		Table:      "clients",
		Fields: audit(
			text("name"),
			text("company_name"),
			text("email"),
			text("phone"),
			text("address"),
			text("country"),
			text("vat_number"),
			textOr("status", ClientStatusActive),
			text("client_type"),
			text("work_field"),
			text("logo_path"),
			text("client_notes"),
		),
	},
	EntityProject: {
		Entity:     EntityProject,
		Collection: "projects",
		Table:      "projects",
		Fields: audit(
			text("name"),
			text("client_id"),
			textOr("status", ProjectStatusActive),
			text("description"),
			timestamp("start_date"),
			timestamp("end_date"),
			list("items"),
			number("subtotal"),
			number("discount_rate"),
			number("discount_amount"),
			number("tax_rate"),
			number("tax_amount"),
			number("total_amount"),
			textOr("currency", DefaultCurrency),
			text("project_notes"),
		),
	},
	EntityPayment: {
		Entity:     EntityPayment,
		Collection: "payments",
		Table:      "payments",
		Fields: audit(
			text("project_id"),
			text("client_id"),
			timestamp("date"),
			number("amount"),
			text("account_id"),
			text("method"),
		),
	},
	EntityJournalEntry: {
		Entity:     EntityJournalEntry,
		Collection: "journal_entries",
		Table:      "journal_entries",
		Fields: audit(
			timestamp("date"),
			textOr("description", ""),
			list("lines"),
			text("related_document_id"),
		),
	},
	EntityInvoice: {
		Entity:     EntityInvoice,
		Collection: "invoices",
		Table:      "invoices",
		Fields: audit(
			text("invoice_number"),
			text("client_id"),
			text("project_id"),
			timestamp("issue_date"),
			timestamp("due_date"),
			list("items"),
			number("subtotal"),
			number("discount_rate"),
			number("discount_amount"),
			number("tax_rate"),
			number("tax_amount"),
			number("total_amount"),
			textOr("currency", DefaultCurrency),
			textOr("status", InvoiceStatusDraft),
			text("notes"),
		),
	},
}

// SchemaFor returns the schema of entity type t.
func SchemaFor(t EntityType) (*Schema, error) {
	s, ok := schemas[t]
	if !ok {
		return nil, fmt.Errorf("unknown entity type %q", t)
	}
	return s, nil
}

// MustSchema is like SchemaFor but panics on unknown types. It is meant for
// the fixed EntityTypes list.
func MustSchema(t EntityType) *Schema {
	s, err := SchemaFor(t)
	if err != nil {
		panic(err)
	}
	return s
}

// Schemas returns the schemas of all entity types in sync order.
func Schemas() []*Schema {
	out := make([]*Schema, 0, len(EntityTypes))
	for _, t := range EntityTypes {
		out = append(out, schemas[t])
	}
	return out
}
