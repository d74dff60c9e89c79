package shoko

// Series is a Shoko series record. The provider's "AniDB" key is exposed as
// AniDBEntity and "Created"/"Updated" as CreatedAt/LastUpdatedAt.
type Series struct {
	IDs           SeriesIDs     `json:"IDs"`
	Name          string        `json:"Name"`
	Description   string        `json:"Description"`
	Size          int           `json:"Size"`
	Images        Images        `json:"Images"`
	UserRating    *Rating       `json:"UserRating,omitempty"`
	AniDBEntity   AniDBWithDate `json:"AniDB"`
	Sizes         SeriesSizes   `json:"Sizes"`
	CreatedAt     Timestamp     `json:"Created"`
	LastUpdatedAt Timestamp     `json:"Updated"`
}

// SeriesSizes holds the episode and file statistics of a series
type SeriesSizes struct {
	Hidden      int               `json:"Hidden"`
	FileSources FileSourceCounts  `json:"FileSources"`
	Local       EpisodeTypeCounts `json:"Local"`
	Watched     EpisodeTypeCounts `json:"Watched"`
	Total       EpisodeTypeCounts `json:"Total"`
}

// Files returns the number of local files across every source
func (s SeriesSizes) Files() int {
	return s.FileSources.Total()
}

// FileSourceCounts counts local files by release source
type FileSourceCounts struct {
	Unknown   int `json:"Unknown"`
	Other     int `json:"Other"`
	TV        int `json:"TV"`
	DVD       int `json:"DVD"`
	BluRay    int `json:"BluRay"`
	Web       int `json:"Web"`
	VHS       int `json:"VHS"`
	VCD       int `json:"VCD"`
	LaserDisc int `json:"LaserDisc"`
	Camera    int `json:"Camera"`
}

// Total sums all ten source categories
func (c FileSourceCounts) Total() int {
	return c.Unknown + c.Other + c.TV + c.DVD + c.BluRay + c.Web + c.VHS + c.VCD + c.LaserDisc + c.Camera
}

// EpisodeTypeCounts counts episodes by type
type EpisodeTypeCounts struct {
	Unknown  int `json:"Unknown"`
	Episodes int `json:"Episodes"`
	Specials int `json:"Specials"`
	Credits  int `json:"Credits"`
	Trailers int `json:"Trailers"`
	Parodies int `json:"Parodies"`
	Others   int `json:"Others"`
}

// Sum returns the count across all episode types
func (c EpisodeTypeCounts) Sum() int {
	return c.Unknown + c.Episodes + c.Specials + c.Credits + c.Trailers + c.Parodies + c.Others
}

// Title returns the preferred display name, falling back to the AniDB main title
func (s *Series) Title() string {
	if s.Name != "" {
		return s.Name
	}
	return s.AniDBEntity.Title
}

// IsMissingEpisodes reports whether the server knows of regular episodes
// that have no local file
func (s *Series) IsMissingEpisodes() bool {
	return s.Sizes.Local.Episodes < s.Sizes.Total.Episodes
}

func (s *Series) normalize() {
	if s.IDs.TvDB == nil {
		s.IDs.TvDB = []int{}
	}
	if s.IDs.TMDB.Movie == nil {
		s.IDs.TMDB.Movie = []int{}
	}
	if s.IDs.TMDB.Show == nil {
		s.IDs.TMDB.Show = []int{}
	}
	if s.IDs.MAL == nil {
		s.IDs.MAL = []int{}
	}
	if s.IDs.TraktTv == nil {
		s.IDs.TraktTv = []string{}
	}
	if s.AniDBEntity.Titles == nil {
		s.AniDBEntity.Titles = []Title{}
	}
	if s.AniDBEntity.Type == "" {
		s.AniDBEntity.Type = SeriesTypeUnknown
	}
}
