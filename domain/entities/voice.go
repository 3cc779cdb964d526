package entities

// DefaultVoice is used when a request does not pick one.
const DefaultVoice = "en-us"

// VoiceOptions maps the supported voice identifiers to display labels.
var VoiceOptions = map[string]string{
	"en-us": "English (US)",
	"en-uk": "English (UK)",
	"en-au": "English (Australian)",
	"en-in": "English (Indian)",
}

// IsKnownVoice reports whether id is one of VoiceOptions.
func IsKnownVoice(id string) bool {
	_, ok := VoiceOptions[id]
	return ok
}
