package shoko

import (
	"encoding/json"
	"time"
)

// Placeholder instants the provider uses to mean "no date".
var (
	// unixEpoch is 1970-01-01T00:00:00Z
	unixEpoch = time.Unix(0, 0).UTC()
	// minInstant matches .NET DateTime.MinValue and Go's zero time
	minInstant = time.Time{}
	// maxInstant matches .NET DateTime.MaxValue
	maxInstant = time.Date(9999, time.December, 31, 23, 59, 59, 999_999_900, time.UTC)
)

// IsSentinelDate reports whether t is one of the placeholder instants
func IsSentinelDate(t time.Time) bool {
	return t.Equal(unixEpoch) || t.Equal(minInstant) || t.Equal(maxInstant)
}

// normalizeDate collapses placeholder instants to nil; anything else is copied
func normalizeDate(t *time.Time) *time.Time {
	if t == nil || IsSentinelDate(*t) {
		return nil
	}
	v := *t
	return &v
}

// AniDB is the base AniDB shape. ID and Rating are optional here because
// lightweight listings (search hits, relations) may omit them.
type AniDB struct {
	ID           *int          `json:"ID"`
	ShokoID      *int          `json:"ShokoID"`
	Type         SeriesType    `json:"Type"`
	Title        string        `json:"Title"`
	Titles       []Title       `json:"Titles"`
	Description  string        `json:"Description"`
	Restricted   bool          `json:"Restricted"`
	EpisodeCount int           `json:"EpisodeCount"`
	Rating       *Rating       `json:"Rating"`
	Relation     *RelationType `json:"Relation,omitempty"`
}

// AniDBWithDate is the AniDB shape attached to a full series record. ID and
// Rating shadow the optional base fields with required ones, and the air/end
// dates are normalized on write: placeholder instants are stored as absent.
type AniDBWithDate struct {
	AniDB
	ID     int    `json:"ID"`
	Rating Rating `json:"Rating"`

	airDate *time.Time
	endDate *time.Time
}

// AirDate returns the normalized air date, or nil when unknown
func (a *AniDBWithDate) AirDate() *time.Time {
	return a.airDate
}

// SetAirDate stores t, dropping placeholder instants
func (a *AniDBWithDate) SetAirDate(t *time.Time) {
	a.airDate = normalizeDate(t)
}

// EndDate returns the normalized end date, or nil when unknown or still airing
func (a *AniDBWithDate) EndDate() *time.Time {
	return a.endDate
}

// SetEndDate stores t, dropping placeholder instants
func (a *AniDBWithDate) SetEndDate(t *time.Time) {
	a.endDate = normalizeDate(t)
}

// aniDBWithDateWire is the serialized form of AniDBWithDate
type aniDBWithDateWire struct {
	AniDB
	ID      int        `json:"ID"`
	Rating  Rating     `json:"Rating"`
	AirDate *Timestamp `json:"AirDate"`
	EndDate *Timestamp `json:"EndDate"`
}

// UnmarshalJSON routes the dates through the normalizing setters
func (a *AniDBWithDate) UnmarshalJSON(data []byte) error {
	wire := aniDBWithDateWire{AniDB: a.AniDB, ID: a.ID, Rating: a.Rating}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	a.AniDB = wire.AniDB
	a.ID = wire.ID
	a.Rating = wire.Rating
	a.SetAirDate(wire.AirDate.timePtr())
	a.SetEndDate(wire.EndDate.timePtr())
	return nil
}

// MarshalJSON implements json.Marshaler
func (a AniDBWithDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(aniDBWithDateWire{
		AniDB:   a.AniDB,
		ID:      a.ID,
		Rating:  a.Rating,
		AirDate: timestampPtr(a.airDate),
		EndDate: timestampPtr(a.endDate),
	})
}
