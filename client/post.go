package client

import (
	"encoding/json"
	"math"
	"time"
)

// Poster identifies who created a post. Older API payloads carry only
// a display name string; newer ones carry a user object. Both resolve
// here at ingestion so nothing downstream re-parses the union.
type Poster struct {
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Post is the client-side view of a geotagged post, normalized from
// whichever wire shape the server produced.
type Post struct {
	ID          string
	Title       string
	Description string
	Category    string
	PriceRange  string
	Lat         float64
	Lng         float64
	Tags        []string
	Images      []string
	RatingAvg   float64
	RatingCount int
	LikesCount  int
	PostedBy    Poster
	CreatedAt   time.Time
	Bookmarked  bool
}

// Valid reports whether the post can be placed on a map: it needs an
// id and two finite coordinates inside WGS84 bounds.
func (p *Post) Valid() bool {
	if p.ID == "" {
		return false
	}
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func (p *Post) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string          `json:"id"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		PriceRange  string          `json:"price_range"`
		Lat         *float64        `json:"lat"`
		Lng         *float64        `json:"lng"`
		Location    json.RawMessage `json:"location"`
		Tags        []string        `json:"tags"`
		Images      json.RawMessage `json:"images"`
		RatingAvg   float64         `json:"rating_avg"`
		RatingCount int             `json:"rating_count"`
		LikesCount  int             `json:"likes_count"`
		PostedBy    json.RawMessage `json:"posted_by"`
		PosterName  string          `json:"poster_name"`
		CreatedAt   time.Time       `json:"created_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.ID = raw.ID
	p.Title = raw.Title
	p.Description = raw.Description
	p.Category = raw.Category
	p.PriceRange = raw.PriceRange
	p.Tags = raw.Tags
	p.RatingAvg = raw.RatingAvg
	p.RatingCount = raw.RatingCount
	p.LikesCount = raw.LikesCount
	p.CreatedAt = raw.CreatedAt

	if raw.Lat != nil && raw.Lng != nil {
		p.Lat, p.Lng = *raw.Lat, *raw.Lng
	} else if lat, lng, ok := parseLocation(raw.Location); ok {
		p.Lat, p.Lng = lat, lng
	} else {
		p.Lat, p.Lng = math.NaN(), math.NaN()
	}

	p.Images = parseImages(raw.Images)
	p.PostedBy = parsePoster(raw.PostedBy)
	if p.PostedBy.Name == "" {
		p.PostedBy.Name = raw.PosterName
	}
	return nil
}

// parseLocation accepts the three location shapes seen on the wire: a
// {lat, lng} object, a GeoJSON point with a [lng, lat] coordinates
// pair, or a bare [lng, lat] array.
func parseLocation(raw json.RawMessage) (lat, lng float64, ok bool) {
	if len(raw) == 0 {
		return 0, 0, false
	}

	var obj struct {
		Lat         *float64   `json:"lat"`
		Lng         *float64   `json:"lng"`
		Coordinates *[]float64 `json:"coordinates"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		if obj.Lat != nil && obj.Lng != nil {
			return *obj.Lat, *obj.Lng, true
		}
		if obj.Coordinates != nil && len(*obj.Coordinates) == 2 {
			return (*obj.Coordinates)[1], (*obj.Coordinates)[0], true
		}
	}

	var pair []float64
	if json.Unmarshal(raw, &pair) == nil && len(pair) == 2 {
		return pair[1], pair[0], true
	}
	return 0, 0, false
}

// parsePoster resolves the posted_by union: a bare name string or a
// user object.
func parsePoster(raw json.RawMessage) Poster {
	if len(raw) == 0 {
		return Poster{}
	}

	var name string
	if json.Unmarshal(raw, &name) == nil {
		return Poster{Name: name}
	}

	var obj struct {
		ID          string `json:"id"`
		LegacyID    string `json:"_id"`
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		p := Poster{UserID: obj.ID, Name: obj.Name}
		if p.UserID == "" {
			p.UserID = obj.LegacyID
		}
		if p.Name == "" {
			p.Name = obj.DisplayName
		}
		return p
	}
	return Poster{}
}

// parseImages flattens both image encodings to plain URLs: an array of
// strings or an array of {url} objects.
func parseImages(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var urls []string
	if json.Unmarshal(raw, &urls) == nil {
		return urls
	}

	var objs []struct {
		URL string `json:"url"`
	}
	if json.Unmarshal(raw, &objs) == nil {
		urls = make([]string, 0, len(objs))
		for _, o := range objs {
			urls = append(urls, o.URL)
		}
		return urls
	}
	return nil
}
