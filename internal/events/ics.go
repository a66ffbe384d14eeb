package events

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"github.com/teemow/calsync/internal/domain"
)

const icsProductID = "-//teemow//calsync//EN"

// ExportICS renders an event as an iCalendar document.
func (o *Orchestrator) ExportICS(ctx context.Context, eventID string) ([]byte, error) {
	d, err := o.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return EncodeICS(d, o.now())
}

// EncodeICS renders d as a VCALENDAR with a single VEVENT stamped at now.
func EncodeICS(d *Details, now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)

	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, d.ID)
	ev.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	ev.Props.SetText(ical.PropSummary, d.Title)
	if d.AllDay {
		ev.Props.SetDate(ical.PropDateTimeStart, d.StartTime)
		ev.Props.SetDate(ical.PropDateTimeEnd, d.StartTime.AddDate(0, 0, 1))
	} else {
		ev.Props.SetDateTime(ical.PropDateTimeStart, d.StartTime.UTC())
		ev.Props.SetDateTime(ical.PropDateTimeEnd, d.EndTime.UTC())
	}
	if d.Description != "" {
		ev.Props.SetText(ical.PropDescription, d.Description)
	}
	if d.Location != nil {
		ev.Props.SetText(ical.PropLocation, d.Location.Address())
		if d.Location.Latitude != nil && d.Location.Longitude != nil {
			ev.Props.Set(&ical.Prop{
				Name:  ical.PropGeo,
				Value: fmt.Sprintf("%f;%f", *d.Location.Latitude, *d.Location.Longitude),
			})
		}
	}
	if d.Conference != nil && d.Conference.JoinURL() != "" {
		ev.Props.SetText(ical.PropURL, d.Conference.JoinURL())
	}
	ev.Props.SetText(ical.PropStatus, icsStatus(d.Status))
	ev.Props.SetText(ical.PropCategories, string(d.Type))

	cal.Children = append(cal.Children, ev.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, domain.Internal("events.export_ics", fmt.Errorf("failed to encode calendar: %w", err))
	}
	return buf.Bytes(), nil
}

func icsStatus(s domain.EventStatus) string {
	switch s {
	case domain.EventStatusTentative:
		return "TENTATIVE"
	case domain.EventStatusCancelled:
		return "CANCELLED"
	default:
		return "CONFIRMED"
	}
}
