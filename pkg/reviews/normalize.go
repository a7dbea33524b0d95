package reviews

import (
	"time"

	"github.com/tidwall/gjson"

	"github.com/epfpro/reviewscope/internal/utils"
	"github.com/epfpro/reviewscope/pkg/gplaces"
	"github.com/epfpro/reviewscope/pkg/places"
)

const anonymousAuthor = "Google user"

// Normalize converts a raw upstream body of either shape into one
// PlaceSummary. The variant is detected structurally: the legacy Details
// API wraps the place in a "result" envelope and uses snake_case keys,
// the v1 API answers with a bare camelCase object whose name lives under
// displayName.text. Missing optional fields get defaults; the only
// malformed cases are a non-object body and a missing name.
func Normalize(body string, id places.Identity, limit int) (PlaceSummary, error) {
	if limit <= 0 {
		limit = DefaultReviewCap
	}

	root := gjson.Parse(body)
	if !root.IsObject() {
		return PlaceSummary{}, gplaces.ErrMalformed
	}
	if res := root.Get("result"); res.Exists() {
		if !res.IsObject() {
			return PlaceSummary{}, gplaces.ErrMalformed
		}
		root = res
	}

	name := root.Get("displayName.text").Str
	if name == "" {
		name = root.Get("name").Str
	}
	if name == "" {
		return PlaceSummary{}, gplaces.ErrMalformed
	}

	s := PlaceSummary{
		Identity:       id,
		Name:           name,
		Address:        firstString(root, "formattedAddress", "formatted_address"),
		WriteReviewURL: id.WriteReviewURL(),
		FetchedAt:      time.Now().UTC(),
		Status:         StatusOK,
		Reviews:        []ReviewEntry{},
	}

	// The legacy API supplies a canonical maps link; fall back to the
	// place-id deep link otherwise.
	s.MapsURL = root.Get("url").Str
	if s.MapsURL == "" {
		s.MapsURL = id.MapsURL()
	}

	if loc := root.Get("location"); loc.Exists() {
		s.Coordinate = &Coordinate{
			Lat: loc.Get("latitude").Float(),
			Lng: loc.Get("longitude").Float(),
		}
	} else if loc := root.Get("geometry.location"); loc.Exists() {
		s.Coordinate = &Coordinate{
			Lat: loc.Get("lat").Float(),
			Lng: loc.Get("lng").Float(),
		}
	}

	for _, rv := range root.Get("reviews").Array() {
		if len(s.Reviews) >= limit {
			break
		}
		s.Reviews = append(s.Reviews, normalizeReview(rv))
	}

	if r := root.Get("rating"); r.Exists() {
		v := r.Float()
		s.Rating = &v
	} else if derived, ok := meanReviewRating(s.Reviews); ok {
		s.Rating = &derived
	}

	if c := firstResult(root, "userRatingCount", "user_ratings_total"); c.Exists() {
		s.ReviewCount = int(c.Int())
	} else {
		// Not assumed zero: the reviews we did get are a floor.
		s.ReviewCount = len(s.Reviews)
	}

	return s, nil
}

// normalizeReview tolerates either review shape; the two endpoint
// families can answer the same logical request path.
func normalizeReview(rv gjson.Result) ReviewEntry {
	e := ReviewEntry{
		Author:          firstString(rv, "authorAttribution.displayName", "author_name"),
		ProfilePhotoURL: firstString(rv, "authorAttribution.photoUri", "profile_photo_url"),
		RelativeTime:    firstString(rv, "relativePublishTimeDescription", "relative_time_description"),
	}
	if e.Author == "" {
		e.Author = anonymousAuthor
	}
	if r := rv.Get("rating"); r.Exists() {
		v := r.Float()
		e.Rating = &v
	}
	// v1 nests the body under text.text; legacy uses a plain string.
	if t := rv.Get("text"); t.Exists() {
		if t.IsObject() {
			e.Text = t.Get("text").Str
		} else {
			e.Text = t.Str
		}
	}
	return e
}

// meanReviewRating derives a place rating from individual reviews when
// upstream supplied none, rounded to one decimal.
func meanReviewRating(entries []ReviewEntry) (float64, bool) {
	var sum float64
	n := 0
	for _, e := range entries {
		if e.Rating != nil {
			sum += *e.Rating
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return utils.Round1(sum / float64(n)), true
}

func firstResult(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func firstString(r gjson.Result, paths ...string) string {
	return firstResult(r, paths...).Str
}
