// Package locations manages event locations: adding one to an event,
// updating or deleting it with the change pushed to every synced event that
// references it, and cached lookups by id, event, text, city, country and
// distance.
package locations
