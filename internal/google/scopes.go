package google

// DefaultOAuthScopes are the Google OAuth scopes calsync requests.
//
//   - Google Calendar: full access, for event insert/update/delete
//   - Google Meet: read spaces, for conference enrichment
var DefaultOAuthScopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/meetings.space.readonly",
}
