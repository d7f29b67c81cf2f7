package youtube

import "regexp"

const CategoryAll = "all"

var categoryIDPattern = regexp.MustCompile(`^[0-9]{1,3}$`)

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

var categories = []Category{
	{ID: CategoryAll, Name: "ALL", Color: "#ef4444"},
	{ID: "10", Name: "MUSIC", Color: "#a855f7"},
	{ID: "20", Name: "GAMING", Color: "#3b82f6"},
	{ID: "22", Name: "VLOGS", Color: "#22c55e"},
	{ID: "23", Name: "COMEDY", Color: "#f97316"},
	{ID: "24", Name: "ENTERTAINMENT", Color: "#ec4899"},
	{ID: "25", Name: "NEWS", Color: "#06b6d4"},
	{ID: "26", Name: "HOWTO", Color: "#eab308"},
	{ID: "27", Name: "EDUCATION", Color: "#6366f1"},
	{ID: "28", Name: "TECH", Color: "#14b8a6"},
}

// Search terms used when a category chart is unavailable for a region.
var categoryKeywords = map[string]string{
	"10": "music songs artist album",
	"20": "gaming gameplay games video game",
	"22": "vlog daily life lifestyle",
	"23": "comedy funny humor jokes",
	"24": "entertainment shows movies",
	"25": "news current events politics",
	"26": "how to tutorial guide diy",
	"27": "education learning science",
	"28": "technology tech review gadgets",
}

func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func IsCategory(id string) bool {
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// ValidCategoryID accepts "all" and any YouTube video category id, listed in
// the category bar or not.
func ValidCategoryID(id string) bool {
	return id == CategoryAll || categoryIDPattern.MatchString(id)
}

func CategoryKeywords(id string) string {
	if kw, ok := categoryKeywords[id]; ok {
		return kw
	}
	return "trending"
}
