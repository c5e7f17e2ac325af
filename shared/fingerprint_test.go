package shared

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestRandomUserAgentFromPool(t *testing.T) {
	pool := make(map[string]bool, len(userAgents))
	for _, ua := range userAgents {
		pool[ua] = true
	}

	for i := 0; i < 50; i++ {
		ua := RandomUserAgent()
		assert.NotEmpty(t, ua)
		assert.True(t, pool[ua], "user agent must come from the rotation pool")
		assert.True(t, strings.HasPrefix(ua, "Mozilla/5.0"))
	}
}

func TestRandomFingerprintIsCoherent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every fingerprint is fully populated", prop.ForAll(
		func(_ int) bool {
			fp := RandomFingerprint()
			return fp.UserAgent != "" &&
				fp.Viewport.Width >= 1280 && fp.Viewport.Height >= 720 &&
				fp.Locale != "" && fp.Timezone != ""
		},
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}
