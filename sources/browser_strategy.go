package sources

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/models"
	"github.com/tripdeals/deals-backend/shared"
)

// AirbnbBrowserStrategy drives a headless browser against Airbnb search.
// Slow but survives the client-side rendering that kills plain HTTP there.
type AirbnbBrowserStrategy struct {
	baseURL string
	timeout time.Duration
}

// NewAirbnbBrowserStrategy creates the strategy.
func NewAirbnbBrowserStrategy(timeout time.Duration) *AirbnbBrowserStrategy {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AirbnbBrowserStrategy{
		baseURL: "https://www.airbnb.com",
		timeout: timeout,
	}
}

func (s *AirbnbBrowserStrategy) Name() string { return StrategyBrowser }

// Search renders the results page headlessly and parses the listing cards.
func (s *AirbnbBrowserStrategy) Search(ctx context.Context, query SearchQuery) ([]models.Listing, error) {
	searchURL := s.buildURL(query)
	fp := shared.RandomFingerprint()

	logger := logrus.WithFields(logrus.Fields{
		"component":   "AirbnbBrowserStrategy",
		"destination": query.Destination,
	})
	logger.Debug("Rendering Airbnb results in headless browser")

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.Flag("mute-audio", true),
		chromedp.UserAgent(fp.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, s.timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(fp.Viewport.Width), int64(fp.Viewport.Height)),
		chromedp.Navigate(searchURL),
		chromedp.WaitVisible(`div[data-testid="card-container"]`, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		kind := shared.ErrKindOther
		if browserCtx.Err() == context.DeadlineExceeded {
			kind = shared.ErrKindTimeout
		}
		return nil, shared.NewFetchError(kind, "airbnb", StrategyBrowser,
			"headless render failed: "+err.Error(), err)
	}

	listings, err := s.parseResults(html, query)
	if err != nil {
		return nil, err
	}

	logger.WithField("listings", len(listings)).Info("Airbnb browser fetch succeeded")
	return listings, nil
}

func (s *AirbnbBrowserStrategy) buildURL(query SearchQuery) string {
	params := url.Values{}
	params.Set("checkin", query.CheckIn.Format("2006-01-02"))
	params.Set("checkout", query.CheckOut.Format("2006-01-02"))
	params.Set("adults", strconv.Itoa(query.Adults))
	if query.Children > 0 {
		params.Set("children", strconv.Itoa(query.Children))
	}
	if query.Pets > 0 {
		params.Set("pets", strconv.Itoa(query.Pets))
	}
	if query.BudgetMax > 0 {
		params.Set("price_max", strconv.Itoa(int(query.BudgetMax)))
	}
	region := url.PathEscape(query.Destination)
	return fmt.Sprintf("%s/s/%s/homes?%s", s.baseURL, region, params.Encode())
}

func (s *AirbnbBrowserStrategy) parseResults(html string, query SearchQuery) ([]models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, shared.NewFetchError(shared.ErrKindOther, "airbnb", StrategyBrowser,
			"could not parse rendered page", err)
	}

	if doc.Find(`form[action*="captcha"], div[id*="captcha"]`).Length() > 0 {
		return nil, shared.NewFetchError(shared.ErrKindBlocked, "airbnb", StrategyBrowser,
			"captcha interstitial served", nil)
	}

	var listings []models.Listing
	doc.Find(`div[data-testid="card-container"]`).Each(func(_ int, card *goquery.Selection) {
		name := strings.TrimSpace(card.Find(`div[data-testid="listing-card-title"]`).First().Text())
		if name == "" {
			return
		}

		priceText := card.Find(`span[data-testid="price"], span:contains("night")`).First().Text()
		nightly := parsePrice(priceText)
		if nightly <= 0 {
			return
		}

		href, _ := card.Find("a[href]").First().Attr("href")
		listingURL := ""
		if strings.HasPrefix(href, "/") {
			listingURL = s.baseURL + href
		} else if href != "" {
			listingURL = href
		}

		rating, reviews := parseAirbnbRating(card.Find(`span[aria-label]`).First().AttrOr("aria-label", ""))
		imageURL, _ := card.Find("img").First().Attr("src")

		listings = append(listings, models.Listing{
			Name:          name,
			Location:      query.Destination,
			PricePerNight: nightly,
			Currency:      "EUR",
			Rating:        rating,
			Reviews:       reviews,
			PetFriendly:   query.Pets > 0,
			Source:        "airbnb",
			URL:           listingURL,
			ImageURL:      imageURL,
		})
	})

	if len(listings) == 0 {
		return nil, shared.NewFetchError(shared.ErrKindParseEmpty, "airbnb", StrategyBrowser,
			"rendered page contained no listing cards", nil)
	}
	return listings, nil
}

var ratingLabelNumbers = regexp.MustCompile(`\d+(?:\.\d+)?`)

// parseAirbnbRating reads labels like "4.92 out of 5 average rating, 187 reviews".
func parseAirbnbRating(label string) (float64, int) {
	matches := ratingLabelNumbers.FindAllString(label, -1)
	if len(matches) == 0 {
		return 0, 0
	}
	rating, _ := strconv.ParseFloat(matches[0], 64)
	if rating > 5 {
		rating = 5
	}
	reviews := 0
	if len(matches) > 2 {
		reviews, _ = strconv.Atoi(matches[2])
	}
	return rating, reviews
}
