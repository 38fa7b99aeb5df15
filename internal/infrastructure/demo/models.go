package demo

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Placeholder GLB assets returned by mock generation
const (
	ChairModelURL      = "https://modelviewer.dev/shared-assets/models/Chair.glb"
	LampModelURL       = "https://modelviewer.dev/shared-assets/models/Mixer.glb"
	HeadphonesModelURL = "https://modelviewer.dev/shared-assets/models/Astronaut.glb"
	DefaultModelURL    = "https://modelviewer.dev/shared-assets/models/RobotExpressive.glb"
)

// checked in order; the first keyword found in the title wins
var modelKeywords = []struct {
	keyword string
	url     string
}{
	{"chair", ChairModelURL},
	{"lamp", LampModelURL},
	{"headphones", HeadphonesModelURL},
}

// ModelFor picks the placeholder model for a product title.
func ModelFor(title string) string {
	lower := cases.Lower(language.Und).String(title)
	for _, m := range modelKeywords {
		if strings.Contains(lower, m.keyword) {
			return m.url
		}
	}
	return DefaultModelURL
}
