package conferencing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderDescription(t *testing.T) {
	m := &Meeting{JoinURL: "https://zoom.us/j/123", Password: "pw1", PlatformName: "Zoom"}

	tests := []struct {
		name     string
		original string
		meeting  *Meeting
		want     string
	}{
		{
			name:     "with original and password",
			original: "Quarterly review",
			meeting:  m,
			want: "Quarterly review\n\n" +
				"━━━━━━━━━━━━━━━━━━━━━━\n🎥 Join Zoom Meeting\n━━━━━━━━━━━━━━━━━━━━━━\n\n" +
				"Meeting Link: https://zoom.us/j/123\nPassword: pw1\n\n━━━━━━━━━━━━━━━━━━━━━━",
		},
		{
			name:    "no original, no password",
			meeting: &Meeting{JoinURL: "https://zoom.us/j/9"},
			want: "━━━━━━━━━━━━━━━━━━━━━━\n🎥 Join Zoom Meeting\n━━━━━━━━━━━━━━━━━━━━━━\n\n" +
				"Meeting Link: https://zoom.us/j/9\n\n━━━━━━━━━━━━━━━━━━━━━━",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderDescription(tt.original, tt.meeting))
		})
	}
}

func TestStripDescription(t *testing.T) {
	m := &Meeting{JoinURL: "https://zoom.us/j/123", Password: "pw1", PlatformName: "Webex"}

	for _, original := range []string{"", "Agenda\n\n- intro\n- demo", "one line"} {
		rendered := RenderDescription(original, m)
		assert.Equal(t, original, StripDescription(rendered), "round trip of %q", original)
	}

	assert.Equal(t, "plain text", StripDescription("plain text"))
	assert.Equal(t, "before\nafter", StripDescription(RenderDescription("before", m)+"\nafter"))
}

func TestParseDescription(t *testing.T) {
	link, pw, ok := ParseDescription(RenderDescription("x", &Meeting{JoinURL: "https://zoom.us/j/1", Password: "secret"}))
	assert.True(t, ok)
	assert.Equal(t, "https://zoom.us/j/1", link)
	assert.Equal(t, "secret", pw)

	link, pw, ok = ParseDescription(RenderDescription("", &Meeting{JoinURL: "https://zoom.us/j/2"}))
	assert.True(t, ok)
	assert.Equal(t, "https://zoom.us/j/2", link)
	assert.Empty(t, pw)

	_, _, ok = ParseDescription("no block here")
	assert.False(t, ok)
}

func TestReplaceOriginal(t *testing.T) {
	m := &Meeting{JoinURL: "https://zoom.us/j/5", PlatformName: "Zoom"}
	rendered := RenderDescription("old text", m)

	assert.Equal(t, RenderDescription("new text", m), ReplaceOriginal(rendered, "new text"))
	assert.Equal(t, RenderDescription("", m), ReplaceOriginal(rendered, ""))
	assert.Equal(t, "fresh", ReplaceOriginal("no block", "fresh"))
}
