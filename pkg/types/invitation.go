package types

// JSONMap is a free-form jsonb payload persisted via the GORM json serializer.
type JSONMap map[string]any

// InvitationTemplateData is the typed customization payload stored on a
// digital invitation. SchemaVersion gates forward-compatible readers.
type InvitationTemplateData struct {
	SchemaVersion int    `json:"schema_version"`
	BrideName     string `json:"bride_name"`
	GroomName     string `json:"groom_name"`
	EventDate     string `json:"event_date,omitempty"`
	EventVenue    string `json:"event_venue,omitempty"`
	Greeting      string `json:"greeting,omitempty"`
	MusicURL      string `json:"music_url,omitempty"`
}

// InvitationTemplateSchemaVersion is the version written by this codebase.
const InvitationTemplateSchemaVersion = 1
