// Package local provides the offline-first SQLite cache of ERP records.
//
// # Overview
//
// Every entity collection has its own table with the entity columns from
// models.Schema plus three bookkeeping columns:
//
//   - id           local identifier, assigned on insert, never changes
//   - _mongo_id    remote identifier, NULL until reserved for a push or pulled, UNIQUE
//   - sync_status  one of synced, new_offline, modified_offline
//
// Store opens the database and applies embedded goose migrations. The editing
// layer uses InsertOffline/UpdateOffline to create dirty records; the sync
// orchestrator works through a Batch, a single transaction committed once per
// entity type and phase.
//
// # Concurrency
//
// Store is safe for concurrent use. A Batch holds one transaction and must be
// used from one goroutine. Readers outside a batch may observe rows already
// marked synced while a batch is running; no isolation beyond SQLite's is
// provided.
//
// Typical Usage
//
//	st, _ := local.Open(ctx, "file:erp.db?_pragma=busy_timeout(5000)")
//	b, _ := st.Begin(ctx)
//	_ = b.UpsertByRemoteID(ctx, schema, remoteID, fields)
//	_ = b.Commit()
package local
