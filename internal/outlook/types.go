package outlook

// MeCalendarID is the source ID for the implicit default calendar.
const MeCalendarID = "me"

// Profile is the Graph user object from GET /me.
type Profile struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// Name returns the best display name available.
func (p *Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if p.Mail != "" {
		return p.Mail
	}
	return p.UserPrincipalName
}

// DateTimeTimeZone is Graph's split timestamp representation.
type DateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Event is a raw Graph event payload. It leaves this package only to be
// normalized.
type Event struct {
	ID          string           `json:"id"`
	Subject     string           `json:"subject"`
	BodyPreview string           `json:"bodyPreview"`
	Start       DateTimeTimeZone `json:"start"`
	End         DateTimeTimeZone `json:"end"`
	IsAllDay    bool             `json:"isAllDay"`
}
