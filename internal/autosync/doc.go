// Package autosync runs the pull-then-push reconciliation between the local
// SQLite cache and the remote document store.
//
// # Cycle
//
// A cycle is guarded by an Idle/Syncing gate. A request made while a cycle
// is running returns at once with Report.Skipped set. Otherwise the cycle:
//
//  1. pings the remote store and stops with Report.Offline when it is
//     unreachable, leaving counters untouched;
//  2. pulls every entity type in models.EntityTypes order, one local batch
//     per type, upserting each document by remote identifier;
//  3. pushes every dirty local record, again one batch per type. Records
//     never pushed first get a remote identifier reserved and committed
//     locally, then are inserted under it; the others are updated.
//
// A record that cannot be mapped or written is logged and skipped; it shows
// up as a RecordResult in the PhaseOutcome of its entity. An error that stops
// a whole entity (fetch, select, commit) is kept in PhaseOutcome.Err and the
// phase moves on to the next entity. The cycle then counts as one failure.
// A panic anywhere in the cycle is recovered, logged with its stack and
// counted the same way.
//
// Because the identifier is reserved before the remote insert, losing the
// final commit of a push leaves the record dirty under an identifier the
// remote store already holds. The next pull adopts that document, so a
// record is never inserted twice.
//
// # Scheduling
//
// Start schedules one cycle after a delay on a goroutine owned by the
// Syncer. Stop cancels a cycle that has not started yet and waits for the
// running one; a started cycle always runs to completion. Every remote call
// is bounded by the remote timeout.
package autosync
