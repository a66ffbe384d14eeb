// Package logging provides structured logging utilities for calsync.
//
// All components log through log/slog. This package keeps attribute names
// consistent (operation, service, calendar_id, event_id, ...), hashes user
// identifiers before they reach a log line, and builds the process handler
// (colorized text via tint, or JSON).
//
//	logger := logging.WithOperation(slog.Default(), "events.create")
//	logger.Info("event synced",
//	    logging.EventID(ev.ID),
//	    logging.UserHash(cal.UserID),
//	    logging.Status(logging.StatusSuccess))
package logging
