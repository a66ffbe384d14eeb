package conferencing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calsync/internal/domain"
)

func TestParseNative(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	payload := &Payload{
		ConferenceID: "abc-defg-hij",
		SolutionType: SolutionNative,
		EntryPoints: []EntryPoint{
			{Type: EntryPointVideo, URI: "https://meet.google.com/abc-defg-hij"},
			{Type: EntryPointPhone, URI: "tel:+1-555-0100", Pin: "123456"},
			{Type: "more", URI: "https://tel.meet/abc-defg-hij?pin=1"},
		},
	}

	c := ParseNative(payload, false, now)
	require.NotNil(t, c)
	assert.Equal(t, domain.ConferenceTypeMeet, c.Type)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", c.MeetLink)
	assert.Equal(t, "abc-defg-hij", c.MeetingCode)
	assert.Equal(t, "+1-555-0100", c.PhoneNumber)
	assert.Equal(t, "123456", c.Pin)
	assert.Equal(t, "abc-defg-hij", c.ExternalConferenceID)
	assert.Equal(t, domain.ConferenceSynced, c.SyncStatus)
	assert.Equal(t, now, c.LastSyncedAt)
}

func TestParseNative_Nil(t *testing.T) {
	now := time.Now()
	assert.Nil(t, ParseNative(nil, false, now))
	assert.Nil(t, ParseNative(&Payload{}, false, now))
	assert.Nil(t, ParseNative(&Payload{ConferenceID: "x"}, true, now))
}

func TestMeetingCode(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"https://meet.google.com/abc-defg-hij", "abc-defg-hij"},
		{"https://meet.google.com/abc-defg-hij/", "abc-defg-hij"},
		{"https://meet.google.com/abc-defg-hij?authuser=0", "abc-defg-hij"},
		{"no-slash", ""},
	}
	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			assert.Equal(t, tt.want, meetingCode(tt.link))
		})
	}
}

func TestStandalonePayload(t *testing.T) {
	p := StandalonePayload(&Meeting{ID: "42", JoinURL: "https://zoom.us/j/42", Password: "pw"})
	assert.Equal(t, SolutionAddOn, p.SolutionType)
	assert.Equal(t, "42", p.ConferenceID)
	assert.Equal(t, "Zoom Meeting Password: pw", p.Notes)
	require.Len(t, p.EntryPoints, 1)
	assert.Equal(t, EntryPointVideo, p.EntryPoints[0].Type)
	assert.Equal(t, "https://zoom.us/j/42", p.EntryPoints[0].URI)

	p = StandalonePayload(&Meeting{ID: "43", JoinURL: "u", PlatformName: "Webex"})
	assert.Equal(t, "Webex Meeting Password: None", p.Notes)
}
