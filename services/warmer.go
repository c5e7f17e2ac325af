package services

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/shared"
)

const sessionWarmTTL = 5 * time.Minute

// SessionWarmer hits a site's landing page before the real search request
// so the session carries cookies and looks like a normal visit. Warmed
// domains are remembered for a short while to avoid redundant round trips.
type SessionWarmer struct {
	clients *shared.HTTPClientFactory

	mu       sync.Mutex
	warmedAt map[string]time.Time

	now func() time.Time
}

// NewSessionWarmer creates a warmer sharing the given client factory.
func NewSessionWarmer(clients *shared.HTTPClientFactory) *SessionWarmer {
	return &SessionWarmer{
		clients:  clients,
		warmedAt: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Warm visits the landing page for targetURL's domain unless it was warmed
// recently. Failures are logged and swallowed; warming is best effort.
func (w *SessionWarmer) Warm(ctx context.Context, targetURL string) {
	parsed, err := url.Parse(targetURL)
	if err != nil || parsed.Host == "" {
		return
	}
	domain := parsed.Host

	w.mu.Lock()
	last, seen := w.warmedAt[domain]
	if seen && w.now().Sub(last) < sessionWarmTTL {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	landing := parsed.Scheme + "://" + domain + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, landing, nil)
	if err != nil {
		return
	}
	shared.SetBrowserLikeHeaders(req, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	client := w.clients.Client(15 * time.Second)
	resp, err := client.Do(req)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "SessionWarmer",
			"domain":    domain,
			"error":     err.Error(),
		}).Debug("Session warmup failed")
		return
	}
	resp.Body.Close()

	w.mu.Lock()
	w.warmedAt[domain] = w.now()
	w.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"component": "SessionWarmer",
		"domain":    domain,
		"status":    resp.StatusCode,
	}).Debug("Session warmed")
}
