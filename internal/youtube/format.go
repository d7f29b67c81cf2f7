package youtube

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// Videos shorter than this are treated as Shorts and left out of grids.
const minVideoLength = 60 * time.Second

var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDuration reads the ISO 8601 durations YouTube returns ("PT1H2M3S").
func ParseDuration(iso string) (time.Duration, bool) {
	m := isoDurationPattern.FindStringSubmatch(iso)
	if m == nil {
		return 0, false
	}
	var total time.Duration
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, false
		}
		total += time.Duration(n) * unit
	}
	return total, true
}

// FormatDuration renders a clock-style length: "4:05" or "1:02:03".
func FormatDuration(d time.Duration) string {
	secs := int(d / time.Second)
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatCount abbreviates view and subscriber counts: 1.5B, 2.3M, 4.5K.
func FormatCount(n uint64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1e9)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1e6)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1e3)
	}
	return strconv.FormatUint(n, 10)
}

func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

func filterShorts(videos []Video) []Video {
	kept := videos[:0]
	for _, v := range videos {
		if v.hasDuration && v.Duration < minVideoLength {
			continue
		}
		kept = append(kept, v)
	}
	return kept
}
