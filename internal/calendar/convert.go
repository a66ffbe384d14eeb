package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/calsync/internal/conferencing"
)

const dateLayout = "2006-01-02"

// toEvent converts the input to a Google event. Reminders are always sent
// with useDefault=false and no overrides.
func toEvent(in EventInput) *calendar.Event {
	ev := &calendar.Event{
		Summary:     in.Title,
		Description: in.Description,
		Location:    in.Location,
		ColorId:     ColorID(in.Type),
		Reminders: &calendar.EventReminders{
			UseDefault:      false,
			ForceSendFields: []string{"UseDefault"},
		},
	}
	setWindow(ev, in)
	return ev
}

// setWindow sets start and end. All-day events end one day after their
// start date.
func setWindow(ev *calendar.Event, in EventInput) {
	if in.AllDay {
		day := in.Start
		ev.Start = &calendar.EventDateTime{Date: day.Format(dateLayout)}
		ev.End = &calendar.EventDateTime{Date: day.AddDate(0, 0, 1).Format(dateLayout)}
		return
	}
	tz := in.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	ev.Start = &calendar.EventDateTime{DateTime: in.Start.Format(time.RFC3339), TimeZone: tz}
	ev.End = &calendar.EventDateTime{DateTime: in.End.Format(time.RFC3339), TimeZone: tz}
}

// nativeRequest asks the provider to create a Meet conference.
func nativeRequest(requestID string) *calendar.ConferenceData {
	return &calendar.ConferenceData{
		CreateRequest: &calendar.CreateConferenceRequest{
			RequestId: requestID,
			ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
				Type: conferencing.SolutionNative,
			},
		},
	}
}

func toConferenceData(p *conferencing.Payload) *calendar.ConferenceData {
	cd := &calendar.ConferenceData{
		ConferenceId: p.ConferenceID,
		Notes:        p.Notes,
		ConferenceSolution: &calendar.ConferenceSolution{
			Key: &calendar.ConferenceSolutionKey{Type: p.SolutionType},
		},
	}
	for _, ep := range p.EntryPoints {
		cd.EntryPoints = append(cd.EntryPoints, &calendar.EntryPoint{
			EntryPointType: ep.Type,
			Uri:            ep.URI,
			Label:          ep.Label,
			Pin:            ep.Pin,
		})
	}
	return cd
}

func fromConferenceData(cd *calendar.ConferenceData) *conferencing.Payload {
	if cd == nil {
		return nil
	}
	p := &conferencing.Payload{
		ConferenceID: cd.ConferenceId,
		Notes:        cd.Notes,
	}
	if cd.ConferenceSolution != nil && cd.ConferenceSolution.Key != nil {
		p.SolutionType = cd.ConferenceSolution.Key.Type
	}
	for _, ep := range cd.EntryPoints {
		if ep == nil {
			continue
		}
		p.EntryPoints = append(p.EntryPoints, conferencing.EntryPoint{
			Type:  ep.EntryPointType,
			URI:   ep.Uri,
			Label: ep.Label,
			Pin:   ep.Pin,
		})
	}
	if p.Empty() {
		return nil
	}
	return p
}

func toResult(ev *calendar.Event) *Result {
	return &Result{
		ExternalID: ev.Id,
		HTMLLink:   ev.HtmlLink,
		Conference: fromConferenceData(ev.ConferenceData),
	}
}

// embedMeeting writes m into ev: a create request for native meetings, or
// the description block plus add-on conference data for standalone ones.
func embedMeeting(ev *calendar.Event, m *conferencing.Meeting) {
	if m.Native() {
		ev.ConferenceData = nativeRequest(m.CreateRequestID)
		return
	}
	ev.Description = conferencing.RenderDescription(conferencing.StripDescription(ev.Description), m)
	ev.ConferenceData = toConferenceData(conferencing.StandalonePayload(m))
}
