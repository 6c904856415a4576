package bridge

import "strings"

// flaggedMarkers identify the Internet Explorer / legacy Edge engine family.
// Those engines cache <img> sources aggressively and choke when the image
// is swapped on every tick, so they get a throttled refresh instead.
var flaggedMarkers = []string{"MSIE ", "Trident/", "Edge/"}

// Detector classifies a user-agent string. It is the single place the
// sniffing rule lives so it can be swapped without touching call sites.
type Detector func(userAgent string) bool

// IsFlaggedBrowser reports whether userAgent belongs to the flagged family.
func IsFlaggedBrowser(userAgent string) bool {
	for _, marker := range flaggedMarkers {
		if strings.Contains(userAgent, marker) {
			return true
		}
	}
	return false
}
