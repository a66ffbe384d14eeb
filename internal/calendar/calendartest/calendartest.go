// Package calendartest provides an in-memory calendar.Adapter for tests
// that exercise the event surfaces with a reachable provider.
package calendartest

import (
	"context"
	"fmt"
	"sync"

	"github.com/teemow/calsync/internal/calendar"
	"github.com/teemow/calsync/internal/conferencing"
)

// Adapter accepts every write and hands out sequential external ids.
// Standalone meetings come back as their payload; native conferencing is
// not generated.
type Adapter struct {
	mu    sync.Mutex
	seq   int
	calls map[string]int
}

var _ calendar.Adapter = (*Adapter)(nil)

// New returns an empty Adapter.
func New() *Adapter {
	return &Adapter{calls: map[string]int{}}
}

// Calls reports how often method was invoked.
func (a *Adapter) Calls(method string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[method]
}

func (a *Adapter) record(method string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls[method]++
}

func (a *Adapter) result(method, externalID string, m *conferencing.Meeting) *calendar.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls[method]++
	if externalID == "" {
		a.seq++
		externalID = fmt.Sprintf("ext-%d", a.seq)
	}
	res := &calendar.Result{ExternalID: externalID}
	if m != nil && !m.Native() {
		res.Conference = conferencing.StandalonePayload(m)
	}
	return res
}

func (a *Adapter) CreateEvent(context.Context, string, calendar.EventInput) (*calendar.Result, error) {
	return a.result("CreateEvent", "", nil), nil
}

func (a *Adapter) CreateAllDayEvent(context.Context, string, calendar.EventInput) (*calendar.Result, error) {
	return a.result("CreateAllDayEvent", "", nil), nil
}

func (a *Adapter) CreateEventWithConference(_ context.Context, _ string, _ calendar.EventInput, m *conferencing.Meeting) (*calendar.Result, error) {
	return a.result("CreateEventWithConference", "", m), nil
}

func (a *Adapter) SetConferenceData(_ context.Context, _, externalID string, m *conferencing.Meeting) (*calendar.Result, error) {
	return a.result("SetConferenceData", externalID, m), nil
}

func (a *Adapter) ClearConferenceData(context.Context, string, string) error {
	a.record("ClearConferenceData")
	return nil
}

func (a *Adapter) UpdateEvent(context.Context, string, string, calendar.EventInput) error {
	a.record("UpdateEvent")
	return nil
}

func (a *Adapter) UpdateEventLocation(context.Context, string, string, string) error {
	a.record("UpdateEventLocation")
	return nil
}

func (a *Adapter) DeleteEvent(context.Context, string, string) error {
	a.record("DeleteEvent")
	return nil
}
