package events

// Format describes how attendees take part in an event
type Format string

const (
	FormatOnline Format = "ONLINE"
	FormatOnsite Format = "ONSITE"
	FormatHybrid Format = "HYBRID"
)

// IsValid checks if the format is one of the known values
func (f Format) IsValid() bool {
	switch f {
	case FormatOnline, FormatOnsite, FormatHybrid:
		return true
	}
	return false
}

// HasVenue reports whether attendees need a physical address
func (f Format) HasVenue() bool {
	return f == FormatOnsite || f == FormatHybrid
}

// HasPlatform reports whether attendees need online access details
func (f Format) HasPlatform() bool {
	return f == FormatOnline || f == FormatHybrid
}

func (f Format) String() string {
	return string(f)
}
