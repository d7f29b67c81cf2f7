package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vixel/vixel/internal/languages"
	"github.com/vixel/vixel/internal/region"
	"github.com/vixel/vixel/internal/theme"
)

var ErrUnknownSetting = errors.New("unknown setting")

type Settings struct {
	Theme    string `json:"theme"`
	Region   string `json:"region"`
	Language string `json:"language"`

	Autoplay       bool    `json:"autoplay"`
	DefaultQuality string  `json:"defaultQuality"`
	DefaultSpeed   float64 `json:"defaultSpeed"`
	Subtitles      bool    `json:"subtitles"`

	SaveWatchHistory bool   `json:"saveWatchHistory"`
	PersonalizedAds  bool   `json:"personalizedAds"`
	DataUsage        string `json:"dataUsage"`

	NewVideosFromSubscriptions bool `json:"newVideosFromSubscriptions"`
	TrendingInYourArea         bool `json:"trendingInYourArea"`
	SystemNotifications        bool `json:"systemNotifications"`

	ReducedMotion bool   `json:"reducedMotion"`
	HighContrast  bool   `json:"highContrast"`
	FontSize      string `json:"fontSize"`
}

var (
	Qualities  = []string{"auto", "high", "medium", "low"}
	DataUsages = []string{"unlimited", "wifi-only", "limited"}
	FontSizes  = []string{"small", "medium", "large"}
	Speeds     = []float64{0.25, 0.5, 0.75, 1, 1.25, 1.5, 1.75, 2}
)

// Defaults leaves Region empty, which means the region is detected.
func Defaults() Settings {
	return Settings{
		Theme:                      theme.Brutal,
		Language:                   "en",
		Autoplay:                   true,
		DefaultQuality:             "auto",
		DefaultSpeed:               1,
		SaveWatchHistory:           true,
		PersonalizedAds:            true,
		DataUsage:                  "unlimited",
		NewVideosFromSubscriptions: true,
		TrendingInYourArea:         true,
		SystemNotifications:        true,
		FontSize:                   "medium",
	}
}

func (s Settings) Validate() error {
	if !theme.IsValid(s.Theme) {
		return fmt.Errorf("theme must be one of %s", strings.Join(theme.Names(), ", "))
	}
	if s.Region != "" && region.Normalize(s.Region) != s.Region {
		return errors.New("region must be a two letter upper-case country code")
	}
	if !languages.IsSupported(s.Language) {
		return fmt.Errorf("language %q is not supported", s.Language)
	}
	if !oneOf(s.DefaultQuality, Qualities) {
		return fmt.Errorf("defaultQuality must be one of %s", strings.Join(Qualities, ", "))
	}
	if !validSpeed(s.DefaultSpeed) {
		return errors.New("defaultSpeed must be between 0.25 and 2 in steps of 0.25")
	}
	if !oneOf(s.DataUsage, DataUsages) {
		return fmt.Errorf("dataUsage must be one of %s", strings.Join(DataUsages, ", "))
	}
	if !oneOf(s.FontSize, FontSizes) {
		return fmt.Errorf("fontSize must be one of %s", strings.Join(FontSizes, ", "))
	}
	return nil
}

// Update sets one field by its JSON name. The receiver is unchanged when the
// value does not parse or would make the settings invalid.
func (s *Settings) Update(key, value string) error {
	next := *s
	value = strings.TrimSpace(value)

	var err error
	switch key {
	case "theme":
		next.Theme = value
	case "region":
		next.Region = region.Normalize(value)
		if value != "" && next.Region == "" {
			return errors.New("region must be a two letter country code")
		}
	case "language":
		next.Language = value
	case "autoplay":
		next.Autoplay, err = strconv.ParseBool(value)
	case "defaultQuality":
		next.DefaultQuality = value
	case "defaultSpeed":
		next.DefaultSpeed, err = strconv.ParseFloat(value, 64)
	case "subtitles":
		next.Subtitles, err = strconv.ParseBool(value)
	case "saveWatchHistory":
		next.SaveWatchHistory, err = strconv.ParseBool(value)
	case "personalizedAds":
		next.PersonalizedAds, err = strconv.ParseBool(value)
	case "dataUsage":
		next.DataUsage = value
	case "newVideosFromSubscriptions":
		next.NewVideosFromSubscriptions, err = strconv.ParseBool(value)
	case "trendingInYourArea":
		next.TrendingInYourArea, err = strconv.ParseBool(value)
	case "systemNotifications":
		next.SystemNotifications, err = strconv.ParseBool(value)
	case "reducedMotion":
		next.ReducedMotion, err = strconv.ParseBool(value)
	case "highContrast":
		next.HighContrast, err = strconv.ParseBool(value)
	case "fontSize":
		next.FontSize = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSetting, key)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

// Export renders the settings as indented JSON for download.
func (s Settings) Export() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Import overlays the given JSON onto the defaults. Fields the document
// leaves out keep their default values.
func Import(data []byte) (Settings, error) {
	s := Defaults()
	if err := json.Unmarshal(data, &s); err != nil {
		return Defaults(), fmt.Errorf("decode settings: %w", err)
	}
	s.Region = strings.ToUpper(s.Region)
	if err := s.Validate(); err != nil {
		return Defaults(), err
	}
	return s, nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func validSpeed(v float64) bool {
	if v < 0.25 || v > 2 {
		return false
	}
	return math.Mod(v*4, 1) == 0
}
