// Package meet looks up Google Meet spaces for conferences created through
// the calendar-native conferencing provider.
//
// Calendar events carry a Meet link and meeting code but no space settings.
// Client.GetSpace resolves the meeting code through the Meet REST API
// (spaces.get accepts "spaces/{meetingCode}" as an alias) and returns the
// space's access configuration, which is added to conference descriptions.
//
// Access is per user: each lookup builds a meet.Service from the user's
// stored Google token.
package meet
