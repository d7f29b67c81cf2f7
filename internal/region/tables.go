package region

import (
	"strings"
)

var timezoneRegions = map[string]string{
	"America/New_York":               "US",
	"America/Chicago":                "US",
	"America/Denver":                 "US",
	"America/Los_Angeles":            "US",
	"America/Toronto":                "CA",
	"America/Vancouver":              "CA",
	"America/Mexico_City":            "MX",
	"Europe/London":                  "GB",
	"Europe/Paris":                   "FR",
	"Europe/Berlin":                  "DE",
	"Europe/Rome":                    "IT",
	"Europe/Madrid":                  "ES",
	"Europe/Amsterdam":               "NL",
	"Europe/Stockholm":               "SE",
	"Europe/Moscow":                  "RU",
	"Asia/Tokyo":                     "JP",
	"Asia/Seoul":                     "KR",
	"Asia/Shanghai":                  "CN",
	"Asia/Hong_Kong":                 "HK",
	"Asia/Singapore":                 "SG",
	"Asia/Kolkata":                   "IN",
	"Asia/Mumbai":                    "IN",
	"Asia/Dubai":                     "AE",
	"Australia/Sydney":               "AU",
	"Australia/Melbourne":            "AU",
	"Pacific/Auckland":               "NZ",
	"America/Sao_Paulo":              "BR",
	"America/Argentina/Buenos_Aires": "AR",
	"America/Santiago":               "CL",
	"Africa/Cairo":                   "EG",
	"Africa/Johannesburg":            "ZA",
	"Africa/Lagos":                   "NG",
}

var continentRegions = map[string]string{
	"America":   "US",
	"Europe":    "DE",
	"Asia":      "IN",
	"Australia": "AU",
	"Africa":    "ZA",
	"Pacific":   "AU",
}

var languageRegions = map[string]string{
	"en-US": "US",
	"en-GB": "GB",
	"en-CA": "CA",
	"en-AU": "AU",
	"en-IN": "IN",
	"es-ES": "ES",
	"es-MX": "MX",
	"es-AR": "AR",
	"fr-FR": "FR",
	"fr-CA": "CA",
	"de-DE": "DE",
	"de-AT": "AT",
	"it-IT": "IT",
	"pt-BR": "BR",
	"pt-PT": "PT",
	"ja-JP": "JP",
	"ko-KR": "KR",
	"zh-CN": "CN",
	"zh-TW": "TW",
	"zh-HK": "HK",
	"hi-IN": "IN",
	"ar-SA": "SA",
	"ru-RU": "RU",
	"nl-NL": "NL",
	"sv-SE": "SE",
	"da-DK": "DK",
	"no-NO": "NO",
	"fi-FI": "FI",
}

// FromTimeZone maps an IANA zone to a country, falling back to a
// representative country for the zone's continent.
func FromTimeZone(tz string) string {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return ""
	}
	if code, ok := timezoneRegions[tz]; ok {
		return code
	}
	continent, _, _ := strings.Cut(tz, "/")
	return continentRegions[continent]
}

// FromLanguage maps the primary tag of an Accept-Language header to a
// country. Tags outside the table use their region subtag when it has one.
func FromLanguage(acceptLanguage string) string {
	tag := PrimaryLanguageTag(acceptLanguage)
	if tag == "" {
		return ""
	}
	for key, code := range languageRegions {
		if strings.EqualFold(key, tag) {
			return code
		}
	}
	parts := strings.Split(tag, "-")
	if len(parts) < 2 {
		return ""
	}
	return Normalize(parts[len(parts)-1])
}

// PrimaryLanguageTag returns the first language tag of an Accept-Language
// header value, without its quality weight.
func PrimaryLanguageTag(acceptLanguage string) string {
	first, _, _ := strings.Cut(acceptLanguage, ",")
	tag, _, _ := strings.Cut(first, ";")
	tag = strings.TrimSpace(tag)
	if tag == "*" {
		return ""
	}
	return tag
}
