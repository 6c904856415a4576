package bridge

import "time"

const (
	// DefaultInterval is the refresh tick period.
	DefaultInterval = 60 * time.Millisecond

	// PathUpdateVector is pinged on every tick.
	PathUpdateVector = "updateVector"
	// PathVectorImage serves the latest rendered frame.
	PathVectorImage = "vectorImage"

	// WarningElementID is shown when the browser is flagged.
	WarningElementID = "vectorImageMicrosoftWarning"
	// ImageElementID is the <img> refreshed by the tick loop.
	ImageElementID = "vectorImageId"
)

// Config controls a Bridge.
type Config struct {
	// Interval between refresh ticks
	Interval time.Duration

	// UpdatePath receives an empty POST on every tick
	UpdatePath string

	// ImagePath is the image source, cache-busted with a timestamp
	ImagePath string

	// Detect decides whether the throttled image refresh is needed
	Detect Detector
}

// DefaultConfig returns the configuration the hosted page expects.
func DefaultConfig() Config {
	return Config{
		Interval:   DefaultInterval,
		UpdatePath: PathUpdateVector,
		ImagePath:  PathVectorImage,
		Detect:     IsFlaggedBrowser,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.UpdatePath == "" {
		c.UpdatePath = d.UpdatePath
	}
	if c.ImagePath == "" {
		c.ImagePath = d.ImagePath
	}
	if c.Detect == nil {
		c.Detect = d.Detect
	}
	return c
}
