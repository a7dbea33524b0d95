package gplaces

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/epfpro/reviewscope/pkg/places"
	"github.com/epfpro/reviewscope/pkg/whttp"
)

// Variant selects which Google Places endpoint family answers the call.
// The legacy Details API is used for the multi-location review wall, the
// v1 field-mask API for single-place lookups with map coordinates.
type Variant int

const (
	VariantLegacy Variant = iota
	VariantV1
)

const (
	legacyBaseURL = "https://maps.googleapis.com/maps/api/place/details/json"
	v1BaseURL     = "https://places.googleapis.com/v1/places"

	// Request only what the summary needs. Extra fields cost money and
	// latency on both endpoint families.
	legacyFields = "name,formatted_address,rating,user_ratings_total,reviews,geometry,url"
	v1Fields     = "id,displayName,formattedAddress,rating,userRatingCount,reviews,location"

	// DefaultTimeout bounds one upstream call. There are no retries, so
	// this is also the worst-case latency one place adds to a render.
	DefaultTimeout = 6 * time.Second
)

// Client performs read-only Place Details lookups. Base URLs are
// overridable so tests can point at a local fake.
type Client struct {
	apiKey string
	http   *retryablehttp.Client

	LegacyBaseURL string
	V1BaseURL     string
}

func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		apiKey:        apiKey,
		http:          whttp.NewClient(timeout),
		LegacyBaseURL: legacyBaseURL,
		V1BaseURL:     v1BaseURL,
	}
}

// Details fetches the raw place payload for one place ID. Exactly one
// outbound call is made; both precondition failures short-circuit before
// any network activity. The body is returned untouched for the
// normalizer, which detects the variant structurally.
func (c *Client) Details(ctx context.Context, placeID string, v Variant) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingCredential
	}
	if placeID == "" || strings.Contains(placeID, places.PlaceholderMarker) {
		return "", ErrInvalidRequest
	}

	var req *whttp.WHTTPReq
	switch v {
	case VariantV1:
		req = &whttp.WHTTPReq{
			URL: c.V1BaseURL + "/" + url.PathEscape(placeID),
			Params: []whttp.WHTTPParam{
				{Name: "fields", Value: v1Fields},
				{Name: "key", Value: c.apiKey},
			},
		}
	default:
		req = &whttp.WHTTPReq{
			URL: c.LegacyBaseURL,
			Params: []whttp.WHTTPParam{
				{Name: "place_id", Value: placeID},
				{Name: "fields", Value: legacyFields},
				{Name: "reviews_sort", Value: "newest"},
				{Name: "key", Value: c.apiKey},
			},
		}
	}

	res, err := whttp.SendHTTPRequest(ctx, req, c.http)
	if err != nil {
		return "", &UpstreamError{Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", &UpstreamError{Status: res.StatusCode, Detail: snippet(res.BodyString)}
	}

	// The legacy API reports most failures inside a 200 envelope.
	if v == VariantLegacy {
		status := gjson.Get(res.BodyString, "status").Str
		if status != "" && status != "OK" && status != "ZERO_RESULTS" {
			detail := status
			if msg := gjson.Get(res.BodyString, "error_message").Str; msg != "" {
				detail += ": " + msg
			}
			return "", &UpstreamError{Status: res.StatusCode, Detail: detail}
		}
	}

	return res.BodyString, nil
}

func snippet(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > 200 {
		return body[:200]
	}
	return body
}
