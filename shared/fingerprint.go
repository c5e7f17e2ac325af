package shared

import "math/rand"

// Browser fingerprint rotation. A diverse pool of user agents, viewports
// and locales keeps consecutive requests from looking identical upstream.

var userAgents = []string{
	// Chrome (Windows)
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	// Chrome (Mac)
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	// Chrome (Linux)
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	// Firefox
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:123.0) Gecko/20100101 Firefox/123.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:123.0) Gecko/20100101 Firefox/123.0",
	"Mozilla/5.0 (X11; Linux x86_64; rv:123.0) Gecko/20100101 Firefox/123.0",
	// Safari
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	// Edge
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36 Edg/122.0.0.0",
}

// Viewport is a browser window size used in fingerprints.
type Viewport struct {
	Width  int
	Height int
}

var viewports = []Viewport{
	{1920, 1080},
	{1366, 768},
	{1536, 864},
	{1440, 900},
	{1280, 800},
	{1280, 720},
}

var locales = []string{"en-US", "en-GB", "de-DE", "nl-NL", "fr-FR"}

var timezones = []string{"America/New_York", "Europe/London", "Europe/Berlin"}

// Fingerprint is a coherent set of browser identity parameters.
type Fingerprint struct {
	UserAgent string
	Viewport  Viewport
	Locale    string
	Timezone  string
}

// RandomUserAgent returns a user agent from the rotation pool.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// RandomFingerprint returns a randomized browser fingerprint.
func RandomFingerprint() Fingerprint {
	return Fingerprint{
		UserAgent: RandomUserAgent(),
		Viewport:  viewports[rand.Intn(len(viewports))],
		Locale:    locales[rand.Intn(len(locales))],
		Timezone:  timezones[rand.Intn(len(timezones))],
	}
}
