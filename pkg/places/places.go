package places

import (
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// PlaceholderMarker flags a place ID that was never filled in. Config
// templates ship with IDs like "REPLACE_WITH_YOUR_SECOND_PLACE_ID";
// those are treated as unconfigured, not as errors.
const PlaceholderMarker = "REPLACE_WITH"

// Identity references one business location on Google.
type Identity struct {
	Label   string `json:"label" mapstructure:"label"`
	PlaceID string `json:"placeId" mapstructure:"place_id"`
}

// Configured reports whether the identity carries a usable place ID.
// An empty or placeholder ID is a normal state for a location that
// hasn't been set up yet.
func (i Identity) Configured() bool {
	return i.PlaceID != "" && !strings.Contains(i.PlaceID, PlaceholderMarker)
}

// WriteReviewURL returns the public "write a review" link for the place.
func (i Identity) WriteReviewURL() string {
	if !i.Configured() {
		return ""
	}
	return "https://search.google.com/local/writereview?placeid=" + url.QueryEscape(i.PlaceID)
}

// MapsURL returns the public Google Maps link for the place. Upstream
// may supply a canonical URL; this is the fallback built from the ID.
func (i Identity) MapsURL() string {
	if !i.Configured() {
		return ""
	}
	return "https://www.google.com/maps/place/?q=place_id:" + url.QueryEscape(i.PlaceID)
}

// FromConfig reads the configured identities from the viper tree.
// Order matters: it is the order locations render in.
func FromConfig() ([]Identity, error) {
	var ids []Identity
	if err := viper.UnmarshalKey("places", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
