package meet

// Space represents a Google Meet meeting space
type Space struct {
	// Name is the resource name of the space
	// Format: spaces/{space}
	Name string `json:"name"`

	// MeetingURI is the URI used to join meetings in this space
	MeetingURI string `json:"meetingUri"`

	// MeetingCode is the typeable code (e.g. "abc-mnop-xyz")
	MeetingCode string `json:"meetingCode"`

	// AccessType defines who can join without knocking
	// Values: "OPEN", "TRUSTED", "RESTRICTED"
	AccessType string `json:"accessType,omitempty"`

	// EntryPointAccess defines which entry points can be used
	EntryPointAccess string `json:"entryPointAccess,omitempty"`

	// ActiveConference is the conference record name, if a conference is running
	ActiveConference string `json:"activeConference,omitempty"`
}

// Active reports whether a conference is currently running in the space.
func (s *Space) Active() bool {
	return s != nil && s.ActiveConference != ""
}
