// Package models defines the ERP entity collections kept in sync between the
// local SQLite cache and the remote document store.
package models

import "fmt"

// EntityType names one synchronised collection.
type EntityType string

const (
	EntityAccount      EntityType = "account"
	EntityClient       EntityType = "client"
	EntityProject      EntityType = "project"
	EntityPayment      EntityType = "payment"
	EntityJournalEntry EntityType = "journal_entry"
	EntityInvoice      EntityType = "invoice"
)

// EntityTypes lists all entity types in sync order. Parents come before
// children so that pulled rows reference already present records.
var EntityTypes = []EntityType{
	EntityAccount,
	EntityClient,
	EntityProject,
	EntityPayment,
	EntityJournalEntry,
	EntityInvoice,
}

// SyncStatus is the local synchronisation state of a record.
type SyncStatus string

const (
	StatusSynced          SyncStatus = "synced"
	StatusNewOffline      SyncStatus = "new_offline"
	StatusModifiedOffline SyncStatus = "modified_offline"
)

// IsDirty reports whether a record with this status awaits a push.
func (s SyncStatus) IsDirty() bool {
	return s == StatusNewOffline || s == StatusModifiedOffline
}

// Valid reports whether s is one of the known statuses.
func (s SyncStatus) Valid() bool {
	switch s {
	case StatusSynced, StatusNewOffline, StatusModifiedOffline:
		return true
	}
	return false
}

// Record is a local row: bookkeeping columns plus entity fields keyed by
// column name.
type Record struct {
	// LocalID is assigned by the local store and never changes.
	LocalID int64
	// RemoteID is empty until the record is pushed or pulled.
	RemoteID string
	Status   SyncStatus
	Fields   map[string]any
}

// HasRemoteID reports whether the record has been seen by the remote store.
func (r Record) HasRemoteID() bool {
	return r.RemoteID != ""
}

func (r Record) String() string {
	return fmt.Sprintf("record(local=%d remote=%q status=%s)", r.LocalID, r.RemoteID, r.Status)
}
