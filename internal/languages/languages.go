package languages

import (
	"sort"
	"strings"
)

type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Interface languages offered in settings. Codes are passed to YouTube as
// hl and relevanceLanguage.
var interfaceLanguageMap = map[string]string{
	"ar": "Arabic",
	"bn": "Bengali",
	"cs": "Czech",
	"da": "Danish",
	"de": "German",
	"el": "Greek",
	"en": "English",
	"es": "Spanish",
	"fa": "Persian",
	"fi": "Finnish",
	"fr": "French",
	"he": "Hebrew",
	"hi": "Hindi",
	"hu": "Hungarian",
	"id": "Indonesian",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"ms": "Malay",
	"nl": "Dutch",
	"no": "Norwegian",
	"pl": "Polish",
	"pt": "Portuguese",
	"ro": "Romanian",
	"ru": "Russian",
	"sv": "Swedish",
	"ta": "Tamil",
	"th": "Thai",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"vi": "Vietnamese",
	"zh": "Chinese",
}

func Name(code string) string {
	return interfaceLanguageMap[code]
}

func IsSupported(code string) bool {
	_, ok := interfaceLanguageMap[code]
	return ok
}

// All returns the supported languages ordered by display name.
func All() []Language {
	langs := make([]Language, 0, len(interfaceLanguageMap))
	for code, name := range interfaceLanguageMap {
		langs = append(langs, Language{Code: code, Name: name})
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i].Name < langs[j].Name })
	return langs
}

// FromTag maps a BCP 47 tag such as "pt-BR" to a supported code, or "".
func FromTag(tag string) string {
	base, _, _ := strings.Cut(strings.TrimSpace(tag), "-")
	base = strings.ToLower(base)
	if base == "nb" || base == "nn" {
		base = "no"
	}
	if IsSupported(base) {
		return base
	}
	return ""
}
