package shoko

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeriesSizes_Files(t *testing.T) {
	tests := []struct {
		name    string
		sources FileSourceCounts
		want    int
	}{
		{
			name: "all zero",
			want: 0,
		},
		{
			name:    "single source",
			sources: FileSourceCounts{BluRay: 12},
			want:    12,
		},
		{
			name: "every source",
			sources: FileSourceCounts{
				Unknown: 1, Other: 2, TV: 3, DVD: 4, BluRay: 5,
				Web: 6, VHS: 7, VCD: 8, LaserDisc: 9, Camera: 10,
			},
			want: 55,
		},
		{
			name: "large values",
			sources: FileSourceCounts{
				Unknown: 1 << 20, Other: 1 << 20, TV: 1 << 20, DVD: 1 << 20, BluRay: 1 << 20,
				Web: 1 << 20, VHS: 1 << 20, VCD: 1 << 20, LaserDisc: 1 << 20, Camera: 1 << 20,
			},
			want: 10 << 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sizes := SeriesSizes{FileSources: tt.sources}
			assert.Equal(t, tt.want, sizes.Files())
		})
	}
}

func TestSeriesSizes_FilesTracksEachField(t *testing.T) {
	var sizes SeriesSizes
	fields := []*int{
		&sizes.FileSources.Unknown,
		&sizes.FileSources.Other,
		&sizes.FileSources.TV,
		&sizes.FileSources.DVD,
		&sizes.FileSources.BluRay,
		&sizes.FileSources.Web,
		&sizes.FileSources.VHS,
		&sizes.FileSources.VCD,
		&sizes.FileSources.LaserDisc,
		&sizes.FileSources.Camera,
	}

	for i, field := range fields {
		*field = i + 1
		// Recomputed on every read
		assert.Equal(t, (i+1)*(i+2)/2, sizes.Files())
	}
}

func TestEpisodeTypeCounts_Sum(t *testing.T) {
	c := EpisodeTypeCounts{Unknown: 1, Episodes: 12, Specials: 2, Credits: 3, Trailers: 4, Parodies: 5, Others: 6}
	assert.Equal(t, 33, c.Sum())
}

func TestSeries_Title(t *testing.T) {
	s := Series{}
	s.AniDBEntity.Title = "Shingeki no Kyojin"
	assert.Equal(t, "Shingeki no Kyojin", s.Title())

	s.Name = "Attack on Titan"
	assert.Equal(t, "Attack on Titan", s.Title())
}

func TestSeries_IsMissingEpisodes(t *testing.T) {
	s := Series{}
	s.Sizes.Total.Episodes = 25
	s.Sizes.Local.Episodes = 24
	assert.True(t, s.IsMissingEpisodes())

	s.Sizes.Local.Episodes = 25
	assert.False(t, s.IsMissingEpisodes())
}

func TestRating_Normalized(t *testing.T) {
	r := Rating{Value: 873, MaxValue: 1000}
	assert.Equal(t, 8.7, r.Normalized(10))
	assert.Equal(t, 0.0, Rating{Value: 5}.Normalized(10))
}

func TestImage_URL(t *testing.T) {
	img := Image{ID: 42, Type: "Poster", Source: "AniDB"}
	assert.Equal(t, "http://shoko:8111/api/v3/Image/AniDB/Poster/42", img.URL("http://shoko:8111/"))

	img.IsDisabled = true
	assert.Empty(t, img.URL("http://shoko:8111"))
	assert.Empty(t, Image{}.URL("http://shoko:8111"))
}

func TestFindTitle(t *testing.T) {
	titles := []Title{
		{Name: "進撃の巨人", Language: "ja", Type: "Official"},
		{Name: "Shingeki no Kyojin", Language: "x-jat", Type: "Main"},
		{Name: "Attack on Titan", Language: "en", Type: "Official"},
	}

	got, ok := FindTitle(titles, "EN", "")
	assert.True(t, ok)
	assert.Equal(t, "Attack on Titan", got.Name)

	got, ok = FindTitle(titles, "x-jat", "main")
	assert.True(t, ok)
	assert.Equal(t, "Shingeki no Kyojin", got.Name)

	_, ok = FindTitle(titles, "de", "")
	assert.False(t, ok)
}
