// Package domain defines the entities shared by every calsync component:
// calendars, events, conferences, locations and the child records owned
// by an event, together with the error kinds returned across layers.
//
// Relations are expressed with foreign-key fields only. An event points
// at its calendar and (optionally) at a location; a conference points back
// at the event it is attached to. Nothing here holds a pointer to another
// entity, so copies can be stored, cached and compared freely.
package domain
