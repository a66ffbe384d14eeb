// Package google provides OAuth2 configuration and per-user token storage
// for the Google Calendar and Meet APIs.
//
// The TokenProvider interface lets different token sources be plugged in.
// FileTokenProvider keeps one JSON token file per user in a directory;
// StaticTokenProvider serves fixed tokens and is meant for tests and
// single-user setups.
package google
