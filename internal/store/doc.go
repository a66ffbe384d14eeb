// Package store persists the calsync domain graph.
//
// Two backends implement Store:
//
//   - Memory: an arena of maps keyed by id. Transactions work on a clone
//     of the arena that replaces the live one on commit.
//   - SQL: SQLite through bun. Transactions use bun.DB.RunInTx.
//
// Both enforce the same rules: an event needs an existing calendar (and
// location, when set), a conference may reference at most one event and
// every event at most one conference, deleting an event removes its
// conference, tasks and attachments, and a location cannot be deleted
// while events still reference it.
package store
