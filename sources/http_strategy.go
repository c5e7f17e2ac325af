package sources

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/models"
	"github.com/tripdeals/deals-backend/shared"
)

var priceDigits = regexp.MustCompile(`[\d.,]+`)

// BookingHTTPStrategy fetches Booking.com search results over plain HTTP.
// Fast when it works; the site serves a bot page or a 429 when it does not,
// which surfaces as a typed fetch error for the router.
type BookingHTTPStrategy struct {
	baseURL string
	timeout time.Duration
}

// NewBookingHTTPStrategy creates the strategy with the standard search URL.
func NewBookingHTTPStrategy(timeout time.Duration) *BookingHTTPStrategy {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BookingHTTPStrategy{
		baseURL: "https://www.booking.com/searchresults.html",
		timeout: timeout,
	}
}

func (s *BookingHTTPStrategy) Name() string { return StrategyHTTP }

// Search scrapes one results page for the query.
func (s *BookingHTTPStrategy) Search(ctx context.Context, query SearchQuery) ([]models.Listing, error) {
	searchURL := s.buildURL(query)

	logger := logrus.WithFields(logrus.Fields{
		"component":   "BookingHTTPStrategy",
		"destination": query.Destination,
	})
	logger.Debug("Fetching Booking.com results over HTTP")

	c := colly.NewCollector()
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		fp := shared.RandomFingerprint()
		r.Headers.Set("User-Agent", fp.UserAgent)
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", fp.Locale+",en;q=0.9")
	})

	var listings []models.Listing
	c.OnHTML(`div[data-testid="property-card"]`, func(e *colly.HTMLElement) {
		listing, ok := s.parseCard(e, query)
		if ok {
			listings = append(listings, listing)
		}
	})

	var fetchErr error
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = classifyHTTPError("booking", StrategyHTTP, r.StatusCode, err)
	})

	if err := c.Visit(searchURL); err != nil && fetchErr == nil {
		fetchErr = classifyHTTPError("booking", StrategyHTTP, 0, err)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if len(listings) == 0 {
		return nil, shared.NewFetchError(shared.ErrKindParseEmpty, "booking", StrategyHTTP,
			"no property cards in response", nil)
	}

	logger.WithField("listings", len(listings)).Info("Booking.com HTTP fetch succeeded")
	return listings, nil
}

func (s *BookingHTTPStrategy) buildURL(query SearchQuery) string {
	params := url.Values{}
	params.Set("ss", query.Destination)
	params.Set("checkin", query.CheckIn.Format("2006-01-02"))
	params.Set("checkout", query.CheckOut.Format("2006-01-02"))
	params.Set("group_adults", strconv.Itoa(query.Adults))
	params.Set("group_children", strconv.Itoa(query.Children))
	params.Set("no_rooms", "1")
	if query.Pets > 0 {
		// Apartments plus the pet-friendly facility filter.
		params.Set("nflt", "ht_id=220;hotelfacility=14")
	}
	return s.baseURL + "?" + params.Encode()
}

func (s *BookingHTTPStrategy) parseCard(e *colly.HTMLElement, query SearchQuery) (models.Listing, bool) {
	name := strings.TrimSpace(e.DOM.Find(`div[data-testid="title"]`).First().Text())
	if name == "" {
		name = strings.TrimSpace(e.DOM.Find("h3").First().Text())
	}
	if name == "" {
		return models.Listing{}, false
	}

	priceText := e.DOM.Find(`span[data-testid="price-and-discounted-price"]`).First().Text()
	total := parsePrice(priceText)
	if total <= 0 {
		return models.Listing{}, false
	}
	// Booking shows the total for the stay; convert to a nightly rate.
	nightly := total / float64(query.Nights())

	rating := parseRating(e.DOM.Find(`div[data-testid="review-score"]`).First().Text())
	reviews := parseReviewCount(e.DOM.Find(`div[data-testid="review-count"]`).First().Text())

	href, _ := e.DOM.Find(`a[data-testid="title-link"]`).First().Attr("href")
	if href == "" {
		href, _ = e.DOM.Find("a[href]").First().Attr("href")
	}
	listingURL := cleanListingURL(href, query)

	imageURL, _ := e.DOM.Find(`img[data-testid="image"]`).First().Attr("src")

	return models.Listing{
		Name:          name,
		Location:      query.Destination,
		PricePerNight: nightly,
		Currency:      "EUR",
		Rating:        rating,
		Reviews:       reviews,
		PetFriendly:   query.Pets > 0, // the search itself is pet-filtered
		Source:        "booking",
		URL:           listingURL,
		ImageURL:      imageURL,
	}, true
}

// parsePrice extracts a numeric amount from text like "€ 1.234,56" or "$950".
func parsePrice(text string) float64 {
	match := priceDigits.FindString(text)
	if match == "" {
		return 0
	}
	// European thousands separators: treat a trailing two-digit comma group
	// as decimals, strip everything else.
	match = strings.ReplaceAll(match, ".", "")
	if idx := strings.LastIndex(match, ","); idx >= 0 && len(match)-idx == 3 {
		match = match[:idx] + "." + match[idx+1:]
	} else {
		match = strings.ReplaceAll(match, ",", "")
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return value
}

// parseRating reads Booking's 0-10 review score and rescales it to 0-5.
func parseRating(text string) float64 {
	match := priceDigits.FindString(strings.ReplaceAll(text, ",", "."))
	if match == "" {
		return 0
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	if score > 5 {
		score = score / 2
	}
	if score > 5 {
		score = 5
	}
	return score
}

func parseReviewCount(text string) int {
	match := priceDigits.FindString(text)
	if match == "" {
		return 0
	}
	match = strings.ReplaceAll(match, ",", "")
	match = strings.ReplaceAll(match, ".", "")
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}

func cleanListingURL(href string, query SearchQuery) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "/") {
		href = "https://www.booking.com" + href
	}
	if idx := strings.Index(href, "?"); idx >= 0 {
		href = href[:idx]
	}
	return fmt.Sprintf("%s?checkin=%s&checkout=%s&group_adults=%d",
		href, query.CheckIn.Format("2006-01-02"), query.CheckOut.Format("2006-01-02"), query.Adults)
}

// classifyHTTPError maps transport failures onto the closed error kinds the
// router switches on.
func classifyHTTPError(source, strategy string, statusCode int, err error) error {
	message := "request failed"
	if err != nil {
		message = err.Error()
	}
	switch {
	case statusCode == 429:
		return shared.NewFetchError(shared.ErrKindRateLimited, source, strategy, message, err)
	case statusCode == 403 || statusCode == 401:
		return shared.NewFetchError(shared.ErrKindBlocked, source, strategy, message, err)
	case isTimeoutError(err):
		return shared.NewFetchError(shared.ErrKindTimeout, source, strategy, message, err)
	default:
		return shared.NewFetchError(shared.ErrKindOther, source, strategy, message, err)
	}
}

// isTimeoutError recognizes deadline and transport timeouts by type. The
// text fallback covers wrapped client errors that lose the net.Error chain.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "Client.Timeout")
}
