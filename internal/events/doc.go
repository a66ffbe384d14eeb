// Package events coordinates every event mutation across the local store,
// the external calendar and the conferencing providers.
//
// Writes are local-first. The event is committed to the store before any
// external call, and a failed external call leaves it in the PENDING sync
// state instead of rolling it back. Operations that fail externally return
// the persisted event together with an ExternalSyncFailure (or
// ProviderDisabled) error so callers can report both.
//
//	e, err := o.Create(ctx, req)
//	switch domain.KindOf(err) {
//	case domain.KindExternalSyncFailure:
//		// e is stored with SyncStatus PENDING
//	}
//
// Reads go through the cache. Each mutation invalidates the entries named
// in invalidation.go after its transaction commits.
package events
