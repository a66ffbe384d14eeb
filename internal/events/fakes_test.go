package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/teemow/calsync/internal/calendar"
	"github.com/teemow/calsync/internal/conferencing"
	"github.com/teemow/calsync/internal/domain"
)

// fakeAdapter records external calendar calls. fail maps a method name to
// the error it returns.
type fakeAdapter struct {
	mu      sync.Mutex
	calls   []string
	fail    map[string]error
	seq     int
	inputs  []calendar.EventInput
	meeting *conferencing.Meeting
	users   []string
	ids     []string
	locs    []string

	// noConference drops native conference data from results.
	noConference bool
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{fail: map[string]error{}}
}

func (f *fakeAdapter) record(method, user, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method)
	f.users = append(f.users, user)
	if externalID != "" {
		f.ids = append(f.ids, externalID)
	}
	return f.fail[method]
}

func (f *fakeAdapter) called(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *fakeAdapter) nextResult(m *conferencing.Meeting) *calendar.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	res := &calendar.Result{ExternalID: fmt.Sprintf("ext-%d", f.seq)}
	switch {
	case m.Native() && f.noConference:
	case m.Native():
		res.Conference = &conferencing.Payload{
			ConferenceID: "abc-mnop-xyz",
			SolutionType: conferencing.SolutionNative,
			EntryPoints: []conferencing.EntryPoint{
				{Type: conferencing.EntryPointVideo, URI: "https://meet.google.com/abc-mnop-xyz"},
				{Type: conferencing.EntryPointPhone, URI: "tel:+1-555-0100", Pin: "123456"},
			},
		}
	case m != nil:
		res.Conference = conferencing.StandalonePayload(m)
	}
	return res
}

func (f *fakeAdapter) create(method, user string, in calendar.EventInput, m *conferencing.Meeting) (*calendar.Result, error) {
	if err := f.record(method, user, ""); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.meeting = m
	f.mu.Unlock()
	return f.nextResult(m), nil
}

func (f *fakeAdapter) CreateEvent(_ context.Context, user string, in calendar.EventInput) (*calendar.Result, error) {
	return f.create("CreateEvent", user, in, nil)
}

func (f *fakeAdapter) CreateAllDayEvent(_ context.Context, user string, in calendar.EventInput) (*calendar.Result, error) {
	return f.create("CreateAllDayEvent", user, in, nil)
}

func (f *fakeAdapter) CreateEventWithConference(_ context.Context, user string, in calendar.EventInput, m *conferencing.Meeting) (*calendar.Result, error) {
	return f.create("CreateEventWithConference", user, in, m)
}

func (f *fakeAdapter) SetConferenceData(_ context.Context, user, externalID string, m *conferencing.Meeting) (*calendar.Result, error) {
	if err := f.record("SetConferenceData", user, externalID); err != nil {
		return nil, err
	}
	res := f.nextResult(m)
	res.ExternalID = externalID
	return res, nil
}

func (f *fakeAdapter) ClearConferenceData(_ context.Context, user, externalID string) error {
	return f.record("ClearConferenceData", user, externalID)
}

func (f *fakeAdapter) UpdateEvent(_ context.Context, user, externalID string, in calendar.EventInput) error {
	if err := f.record("UpdateEvent", user, externalID); err != nil {
		return err
	}
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()
	return nil
}

func (f *fakeAdapter) UpdateEventLocation(_ context.Context, user, externalID, location string) error {
	if err := f.record("UpdateEventLocation", user, externalID); err != nil {
		return err
	}
	f.mu.Lock()
	f.locs = append(f.locs, location)
	f.mu.Unlock()
	return nil
}

func (f *fakeAdapter) DeleteEvent(_ context.Context, user, externalID string) error {
	return f.record("DeleteEvent", user, externalID)
}

// fakeProvider is a conferencing provider of a fixed type.
type fakeProvider struct {
	mu         sync.Mutex
	kind       domain.ConferenceType
	created    int
	deleted    []string
	failCreate error
	failDelete error
}

func (p *fakeProvider) Type() domain.ConferenceType { return p.kind }

func (p *fakeProvider) CreateMeeting(_ context.Context, req conferencing.MeetingRequest) (*conferencing.Meeting, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failCreate != nil {
		return nil, p.failCreate
	}
	p.created++
	if p.kind == domain.ConferenceTypeMeet {
		return &conferencing.Meeting{Type: p.kind, CreateRequestID: fmt.Sprintf("req-%d", p.created)}, nil
	}
	id := fmt.Sprintf("%d", 9000+p.created)
	return &conferencing.Meeting{
		Type:         p.kind,
		ID:           id,
		JoinURL:      "https://zoom.example/j/" + id,
		Password:     "secret",
		PlatformName: "Zoom",
	}, nil
}

func (p *fakeProvider) DeleteMeeting(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failDelete != nil {
		return p.failDelete
	}
	p.deleted = append(p.deleted, id)
	return nil
}

func (p *fakeProvider) Describe(_ context.Context, _ string, c *domain.Conference) conferencing.Description {
	return conferencing.Description{Platform: c.PlatformName, JoinURL: c.JoinURL(), Password: c.Password}
}
