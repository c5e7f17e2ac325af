package sources

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/tripdeals/deals-backend/models"
)

// CenterParcsFallback serves a curated set of Dutch holiday parks. The
// parks are spread across the country, so every destination gets the full
// list; prices are indicative nightly rates. Never fails, which is why the
// router pins it last.
type CenterParcsFallback struct{}

// NewCenterParcsFallback creates the fallback strategy.
func NewCenterParcsFallback() *CenterParcsFallback {
	return &CenterParcsFallback{}
}

func (s *CenterParcsFallback) Name() string { return StrategyFallback }

// Search returns the static park list.
func (s *CenterParcsFallback) Search(ctx context.Context, query SearchQuery) ([]models.Listing, error) {
	parks := []models.Listing{
		{
			Name:          "Center Parcs De Kempervennen",
			Location:      "Westerhoven, North Brabant",
			PricePerNight: 45,
			Currency:      "EUR",
			Rating:        4.2,
			Reviews:       234,
			PetFriendly:   true,
			Source:        "center-parcs",
			URL:           "https://www.centerparcs.nl/nl-nl/nederland/fp_VK_vakantiepark-de-kempervennen",
		},
		{
			Name:          "Center Parcs Zandvoort Beach",
			Location:      "Zandvoort aan Zee",
			PricePerNight: 58,
			Currency:      "EUR",
			Rating:        4.5,
			Reviews:       512,
			PetFriendly:   true,
			Source:        "center-parcs",
			URL:           "https://www.centerparcs.nl/nl-nl/nederland/fp_PZ_vakantiepark-zandvoort",
		},
		{
			Name:          "Center Parcs De Huttenheugte",
			Location:      "Dalen, Drenthe",
			PricePerNight: 42,
			Currency:      "EUR",
			Rating:        4.1,
			Reviews:       189,
			PetFriendly:   true,
			Source:        "center-parcs",
			URL:           "https://www.centerparcs.nl/nl-nl/nederland/fp_DH_vakantiepark-de-huttenheugte",
		},
		{
			Name:          "Center Parcs Port Zelande",
			Location:      "Ouddorp, Zeeland",
			PricePerNight: 52,
			Currency:      "EUR",
			Rating:        4.4,
			Reviews:       423,
			PetFriendly:   true,
			Source:        "center-parcs",
			URL:           "https://www.centerparcs.nl/nl-nl/nederland/fp_PZ_vakantiepark-port-zelande",
		},
		{
			Name:          "Center Parcs Het Heijderbos",
			Location:      "Heijen, Limburg",
			PricePerNight: 48,
			Currency:      "EUR",
			Rating:        4.3,
			Reviews:       367,
			PetFriendly:   true,
			Source:        "center-parcs",
			URL:           "https://www.centerparcs.nl/nl-nl/nederland/fp_HB_vakantiepark-het-heijderbos",
		},
	}

	logrus.WithFields(logrus.Fields{
		"component":   "CenterParcsFallback",
		"destination": query.Destination,
		"parks":       len(parks),
	}).Debug("Serving static park data")

	return parks, nil
}
