package shoko

import (
	"fmt"
	"math"
	"strings"
)

// IDs is the identifier bundle shared by every Shoko record. ID is the local
// Shoko identifier and is authoritative.
type IDs struct {
	ID int `json:"ID"`
}

// TMDBIDs holds The Movie Database identifiers linked to a record
type TMDBIDs struct {
	Movie []int `json:"Movie"`
	Show  []int `json:"Show"`
}

// SeriesIDs identifies a series locally and on external providers
type SeriesIDs struct {
	IDs
	ParentGroup   int      `json:"ParentGroup"`
	TopLevelGroup int      `json:"TopLevelGroup"`
	AniDB         int      `json:"AniDB"`
	TvDB          []int    `json:"TvDB"`
	TMDB          TMDBIDs  `json:"TMDB"`
	MAL           []int    `json:"MAL"`
	TraktTv       []string `json:"TraktTv"`
}

// EpisodeIDs identifies an episode and its parent series
type EpisodeIDs struct {
	IDs
	ParentSeries int     `json:"ParentSeries"`
	AniDB        int     `json:"AniDB"`
	TvDB         []int   `json:"TvDB"`
	TMDB         TMDBIDs `json:"TMDB"`
}

// Image is a single artwork entry
type Image struct {
	ID               int    `json:"ID"`
	Type             string `json:"Type"`
	Source           string `json:"Source"`
	RelativeFilepath string `json:"RelativeFilepath,omitempty"`
	LanguageCode     string `json:"LanguageCode,omitempty"`
	IsPreferred      bool   `json:"Preferred"`
	IsDisabled       bool   `json:"Disabled"`
	Width            int    `json:"Width,omitempty"`
	Height           int    `json:"Height,omitempty"`
}

// IsAvailable reports whether the image points at something the server can serve
func (i Image) IsAvailable() bool {
	return i.ID != 0 && i.Source != "" && !i.IsDisabled
}

// URL builds the server path for the image relative to baseURL
func (i Image) URL(baseURL string) string {
	if !i.IsAvailable() {
		return ""
	}
	return fmt.Sprintf("%s/api/v3/Image/%s/%s/%d", strings.TrimRight(baseURL, "/"), i.Source, i.Type, i.ID)
}

// Images holds at most one representative image per role. The poster is
// always present by convention; the rest are best effort.
type Images struct {
	Poster Image  `json:"Poster"`
	Fanart *Image `json:"Fanart,omitempty"`
	Banner *Image `json:"Banner,omitempty"`
	Logo   *Image `json:"Logo,omitempty"`
}

// Rating is a score on a given scale
type Rating struct {
	Value    float64 `json:"Value"`
	MaxValue int     `json:"MaxValue"`
	Source   string  `json:"Source"`
	Type     string  `json:"Type,omitempty"`
	Votes    int     `json:"Votes"`
}

// Normalized rescales the rating to the given maximum, rounded to one decimal
func (r Rating) Normalized(scale int) float64 {
	if r.MaxValue <= 0 || scale <= 0 {
		return 0
	}
	v := r.Value / float64(r.MaxValue) * float64(scale)
	return math.Round(v*10) / 10
}

// Title is one title of a series or episode in a given language
type Title struct {
	Name     string `json:"Name"`
	Language string `json:"Language"`
	Type     string `json:"Type,omitempty"`
	Default  bool   `json:"Default"`
	Source   string `json:"Source"`
}

// FindTitle returns the first title matching language (case-insensitive)
// and, when titleType is non-empty, the given type.
func FindTitle(titles []Title, language, titleType string) (Title, bool) {
	for _, t := range titles {
		if !strings.EqualFold(t.Language, language) {
			continue
		}
		if titleType != "" && !strings.EqualFold(t.Type, titleType) {
			continue
		}
		return t, true
	}
	return Title{}, false
}
