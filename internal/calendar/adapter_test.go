package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/calsync/internal/domain"
)

func TestColorID(t *testing.T) {
	tests := []struct {
		typ  domain.EventType
		want string
	}{
		{domain.EventTypeOthers, "9"},
		{domain.EventTypeMeeting, "1"},
		{domain.EventTypeAppointment, "3"},
		{domain.EventTypeReminder, "4"},
		{domain.EventTypeBirthday, "6"},
		{domain.EventTypeHoliday, "7"},
		{domain.EventTypeTask, "5"},
		{domain.EventTypeStudy, "11"},
		{domain.EventTypeWork, "2"},
		{domain.EventTypeRoute, "8"},
		{"UNKNOWN", ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.want, ColorID(tt.typ))
		})
	}
}

func TestInputFromEvent(t *testing.T) {
	now := time.Now()
	e := &domain.Event{Title: "t", Description: "d", StartTime: now, EndTime: now.Add(time.Hour), Type: domain.EventTypeStudy}

	in := InputFromEvent(e, nil, "Europe/Berlin")
	assert.Empty(t, in.Location)
	assert.Equal(t, "Europe/Berlin", in.TimeZone)

	in = InputFromEvent(e, &domain.Location{PlaceName: "Library", City: "Berlin"}, "")
	assert.Equal(t, "Library, Berlin", in.Location)
}

func TestDisabled(t *testing.T) {
	ctx := context.Background()
	var a Adapter = Disabled{}

	_, err := a.CreateEvent(ctx, "u", EventInput{})
	assert.ErrorIs(t, err, domain.ErrProviderDisabled)
	_, err = a.CreateAllDayEvent(ctx, "u", EventInput{})
	assert.ErrorIs(t, err, domain.ErrProviderDisabled)
	_, err = a.CreateEventWithConference(ctx, "u", EventInput{}, nil)
	assert.ErrorIs(t, err, domain.ErrProviderDisabled)
	_, err = a.SetConferenceData(ctx, "u", "x", nil)
	assert.ErrorIs(t, err, domain.ErrProviderDisabled)
	assert.ErrorIs(t, a.ClearConferenceData(ctx, "u", "x"), domain.ErrProviderDisabled)
	assert.ErrorIs(t, a.UpdateEvent(ctx, "u", "x", EventInput{}), domain.ErrProviderDisabled)
	assert.ErrorIs(t, a.UpdateEventLocation(ctx, "u", "x", ""), domain.ErrProviderDisabled)
	assert.ErrorIs(t, a.DeleteEvent(ctx, "u", "x"), domain.ErrProviderDisabled)

	assert.False(t, IsEnabled(a))
	assert.False(t, IsEnabled(nil))
	assert.True(t, IsEnabled(&Google{}))
}
