// Package calendars manages users' calendars and keeps the primary
// calendar invariant: among a user's non-deleted calendars at most one is
// primary, and the first calendar a user creates becomes primary.
//
// Every mutation runs in one store transaction, so a demotion and the
// promotion or insert that caused it commit together. Reads go through the
// cache; each mutation invalidates exactly the entries listed in
// invalidation.go after the transaction commits.
package calendars
