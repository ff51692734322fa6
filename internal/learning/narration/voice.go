// Package narration picks speech-synthesis voices and splits lessons into narration segments.
package narration

import "strings"

// Voice mirrors what a browser reports for one available speech-synthesis voice.
type Voice struct {
	Name         string `json:"name"`
	Lang         string `json:"lang"`
	VoiceURI     string `json:"voice_uri,omitempty"`
	LocalService bool   `json:"local_service"`
	Default      bool   `json:"default"`
}

// NormalizeTag lowercases a language tag and uses '-' as the separator ("en_US" -> "en-us").
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
}

func primaryLanguage(tag string) string {
	tag = NormalizeTag(tag)
	if i := strings.IndexByte(tag, '-'); i >= 0 {
		return tag[:i]
	}
	return tag
}

// SelectVoice chooses the voice for locale: an exact tag match, then a voice of the same
// language, then the platform default, then the first voice. Local voices win ties at the
// first two steps. ok is false only when voices is empty.
func SelectVoice(locale string, voices []Voice) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}
	want := NormalizeTag(locale)
	lang := primaryLanguage(locale)

	if v, ok := pick(voices, func(v Voice) bool { return want != "" && NormalizeTag(v.Lang) == want }); ok {
		return v, true
	}
	if v, ok := pick(voices, func(v Voice) bool { return lang != "" && primaryLanguage(v.Lang) == lang }); ok {
		return v, true
	}
	for _, v := range voices {
		if v.Default {
			return v, true
		}
	}
	return voices[0], true
}

// pick returns the first local voice matching fn, else the first matching voice.
func pick(voices []Voice, fn func(Voice) bool) (Voice, bool) {
	var fallback *Voice
	for i := range voices {
		if !fn(voices[i]) {
			continue
		}
		if voices[i].LocalService {
			return voices[i], true
		}
		if fallback == nil {
			fallback = &voices[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Voice{}, false
}
