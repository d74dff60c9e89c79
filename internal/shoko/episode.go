package shoko

// Episode is a Shoko episode record
type Episode struct {
	IDs             EpisodeIDs       `json:"IDs"`
	Name            string           `json:"Name"`
	Description     string           `json:"Description"`
	Duration        Duration         `json:"Duration"`
	IsHidden        bool             `json:"IsHidden"`
	Size            int              `json:"Size"`
	Watched         *Timestamp       `json:"Watched,omitempty"`
	ResumePosition  *Duration        `json:"ResumePosition,omitempty"`
	AniDBEntity     EpisodeAniDB     `json:"AniDB"`
	CrossReferences []CrossReference `json:"CrossReferences"`
	CreatedAt       Timestamp        `json:"Created"`
	LastUpdatedAt   Timestamp        `json:"Updated"`
}

// EpisodeAniDB is the AniDB view of an episode. AirDate is passed through as
// received; unlike series dates it is not normalized.
type EpisodeAniDB struct {
	ID            int         `json:"ID"`
	Type          EpisodeType `json:"Type"`
	EpisodeNumber int         `json:"EpisodeNumber"`
	AirDate       *Timestamp  `json:"AirDate"`
	Duration      Duration    `json:"Duration"`
	Titles        []Title     `json:"Titles"`
	Description   string      `json:"Description"`
	Rating        Rating      `json:"Rating"`
}

// CrossReference links an episode to a local file
type CrossReference struct {
	FileID       int                        `json:"FileID"`
	ED2K         string                     `json:"ED2K,omitempty"`
	FileSize     int64                      `json:"FileSize"`
	Series       CrossReferenceIDs          `json:"Series"`
	Episodes     []EpisodeCrossReferenceIDs `json:"Episodes"`
	ReleaseGroup *int                       `json:"ReleaseGroup,omitempty"`
}

// CrossReferenceIDs pairs the local and AniDB identifiers of one side of a link.
// Shoko is nil when the server has not imported the entity yet.
type CrossReferenceIDs struct {
	Shoko *int `json:"ID"`
	AniDB int  `json:"AniDB"`
}

// EpisodeCrossReferenceIDs identifies an episode inside a cross-reference and
// how much of the file it covers
type EpisodeCrossReferenceIDs struct {
	CrossReferenceIDs
	Percentage CrossReferencePercentage `json:"Percentage"`
}

// CrossReferencePercentage is the slice of a file that belongs to an episode
type CrossReferencePercentage struct {
	Start int `json:"Start"`
	End   int `json:"End"`
	Size  int `json:"Size"`
	Group int `json:"Group"`
}

// IsWatched reports whether the server has a watched date for the episode
func (e *Episode) IsWatched() bool {
	return e.Watched != nil
}

// FileIDs returns the distinct local file ids linked to the episode, in order
func (e *Episode) FileIDs() []int {
	seen := make(map[int]bool, len(e.CrossReferences))
	ids := make([]int, 0, len(e.CrossReferences))
	for _, xref := range e.CrossReferences {
		if xref.FileID == 0 || seen[xref.FileID] {
			continue
		}
		seen[xref.FileID] = true
		ids = append(ids, xref.FileID)
	}
	return ids
}

// Covers reports whether the cross-reference links the file to the episode
// with the given AniDB id
func (x CrossReference) Covers(anidbEpisodeID int) bool {
	for _, ep := range x.Episodes {
		if ep.AniDB == anidbEpisodeID {
			return true
		}
	}
	return false
}

func (e *Episode) normalize() {
	if e.IDs.TvDB == nil {
		e.IDs.TvDB = []int{}
	}
	if e.IDs.TMDB.Movie == nil {
		e.IDs.TMDB.Movie = []int{}
	}
	if e.IDs.TMDB.Show == nil {
		e.IDs.TMDB.Show = []int{}
	}
	if e.AniDBEntity.Type == 0 {
		e.AniDBEntity.Type = EpisodeTypeUnknown
	}
	if e.AniDBEntity.Titles == nil {
		e.AniDBEntity.Titles = []Title{}
	}
	if e.CrossReferences == nil {
		e.CrossReferences = []CrossReference{}
	}
	for i := range e.CrossReferences {
		if e.CrossReferences[i].Episodes == nil {
			e.CrossReferences[i].Episodes = []EpisodeCrossReferenceIDs{}
		}
	}
}
