package shoko

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seriesPayload = `{
	"IDs": {
		"ID": 318,
		"ParentGroup": 301,
		"TopLevelGroup": 301,
		"AniDB": 9541,
		"TvDB": [267440],
		"TMDB": {"Movie": [], "Show": [1429]},
		"MAL": [16498],
		"TraktTv": ["attack-on-titan"]
	},
	"Name": "Attack on Titan",
	"Description": "Several hundred years ago, humans were nearly exterminated by titans.",
	"Size": 27,
	"Images": {
		"Poster": {"ID": 156, "Type": "Poster", "Source": "AniDB", "Preferred": true, "Disabled": false},
		"Fanart": {"ID": 9001, "Type": "Backdrop", "Source": "TMDB", "Preferred": false, "Disabled": false}
	},
	"UserRating": {"Value": 9, "MaxValue": 10, "Source": "User", "Votes": 1},
	"AniDB": {
		"ID": 9541,
		"ShokoID": 318,
		"Type": "TV",
		"Title": "Shingeki no Kyojin",
		"Titles": [
			{"Name": "Shingeki no Kyojin", "Language": "x-jat", "Type": "Main", "Default": true, "Source": "AniDB"},
			{"Name": "Attack on Titan", "Language": "en", "Type": "Official", "Default": false, "Source": "AniDB"}
		],
		"Description": "Several hundred years ago...",
		"Restricted": false,
		"EpisodeCount": 25,
		"Rating": {"Value": 853, "MaxValue": 1000, "Source": "AniDB", "Votes": 23711},
		"AirDate": "2013-04-07",
		"EndDate": "2013-09-29"
	},
	"Sizes": {
		"Hidden": 0,
		"FileSources": {"Unknown": 0, "Other": 0, "TV": 0, "DVD": 0, "BluRay": 25, "Web": 2, "VHS": 0, "VCD": 0, "LaserDisc": 0, "Camera": 0},
		"Local": {"Unknown": 0, "Episodes": 25, "Specials": 2, "Credits": 0, "Trailers": 0, "Parodies": 0, "Others": 0},
		"Watched": {"Unknown": 0, "Episodes": 13, "Specials": 0, "Credits": 0, "Trailers": 0, "Parodies": 0, "Others": 0},
		"Total": {"Unknown": 0, "Episodes": 25, "Specials": 8, "Credits": 4, "Trailers": 3, "Parodies": 0, "Others": 0}
	},
	"Created": "2020-05-01T12:00:00Z",
	"Updated": "2024-01-15T08:30:00.1234567+01:00"
}`

func TestDecodeSeries(t *testing.T) {
	series, err := DecodeSeries(strings.NewReader(seriesPayload))
	require.NoError(t, err)

	assert.Equal(t, 318, series.IDs.ID)
	assert.Equal(t, 9541, series.IDs.AniDB)
	assert.Equal(t, []int{267440}, series.IDs.TvDB)
	assert.Equal(t, []int{1429}, series.IDs.TMDB.Show)
	assert.Equal(t, "Attack on Titan", series.Name)
	assert.Equal(t, 27, series.Size)

	assert.Equal(t, 156, series.Images.Poster.ID)
	assert.True(t, series.Images.Poster.IsPreferred)
	require.NotNil(t, series.Images.Fanart)
	assert.Nil(t, series.Images.Banner)

	require.NotNil(t, series.UserRating)
	assert.Equal(t, 9.0, series.UserRating.Value)

	assert.Equal(t, 9541, series.AniDBEntity.ID)
	require.NotNil(t, series.AniDBEntity.ShokoID)
	assert.Equal(t, 318, *series.AniDBEntity.ShokoID)
	assert.Equal(t, SeriesTypeTV, series.AniDBEntity.Type)
	assert.Len(t, series.AniDBEntity.Titles, 2)
	assert.Equal(t, 853.0, series.AniDBEntity.Rating.Value)
	require.NotNil(t, series.AniDBEntity.AirDate())
	assert.True(t, series.AniDBEntity.AirDate().Equal(time.Date(2013, time.April, 7, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, 27, series.Sizes.Files())
	assert.Equal(t, 13, series.Sizes.Watched.Episodes)
	assert.Equal(t, 8, series.Sizes.Total.Specials)

	assert.True(t, series.CreatedAt.Equal(time.Date(2020, time.May, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2024, series.LastUpdatedAt.Year())
}

func TestDecodeSeries_MinimalDefaults(t *testing.T) {
	series, err := DecodeSeries(strings.NewReader(`{"IDs":{"ID":42}}`))
	require.NoError(t, err)

	assert.Equal(t, 42, series.IDs.ID)
	assert.Equal(t, "", series.Name)
	assert.Equal(t, "", series.Description)
	assert.Equal(t, 0, series.Size)
	assert.Nil(t, series.UserRating)

	assert.NotNil(t, series.IDs.TvDB)
	assert.Empty(t, series.IDs.TvDB)
	assert.NotNil(t, series.AniDBEntity.Titles)
	assert.Empty(t, series.AniDBEntity.Titles)

	assert.Equal(t, Images{}, series.Images)
	assert.Equal(t, SeriesSizes{}, series.Sizes)
	assert.Equal(t, 0, series.Sizes.Files())
	assert.Equal(t, 0, series.AniDBEntity.ID)
	assert.Equal(t, SeriesTypeUnknown, series.AniDBEntity.Type)
	assert.Nil(t, series.AniDBEntity.AirDate())
	assert.Nil(t, series.AniDBEntity.EndDate())
	assert.True(t, series.CreatedAt.IsZero())
}

func TestDecodeEpisode_MinimalDefaults(t *testing.T) {
	episode, err := DecodeEpisode(strings.NewReader(`{"IDs":{"ID":7,"ParentSeries":318}}`))
	require.NoError(t, err)

	assert.Equal(t, 7, episode.IDs.ID)
	assert.Equal(t, 318, episode.IDs.ParentSeries)
	assert.Equal(t, "", episode.Name)
	assert.Equal(t, time.Duration(0), episode.Duration.Duration)
	assert.False(t, episode.IsHidden)
	assert.Equal(t, 0, episode.Size)

	assert.NotNil(t, episode.CrossReferences)
	assert.Empty(t, episode.CrossReferences)
	assert.NotNil(t, episode.AniDBEntity.Titles)
	assert.Empty(t, episode.AniDBEntity.Titles)
	assert.Equal(t, EpisodeTypeUnknown, episode.AniDBEntity.Type)
	assert.Nil(t, episode.AniDBEntity.AirDate)
}

func TestDecode_SchemaMismatch(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "malformed json", payload: `{"IDs": {"ID": 1}`},
		{name: "wrong top-level shape", payload: `[1, 2, 3]`},
		{name: "wrong field type", payload: `{"IDs": {"ID": "one"}}`},
		{name: "unknown series type", payload: `{"AniDB": {"Type": "Radio"}}`},
		{name: "bad timestamp", payload: `{"Created": "yesterday"}`},
		{name: "empty", payload: ``},
		{name: "null", payload: `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := DecodeSeries(strings.NewReader(tt.payload))
			require.Error(t, err)
			assert.Nil(t, series)
			assert.True(t, errors.Is(err, ErrSchemaMismatch), "expected schema mismatch, got %v", err)
		})
	}

	t.Run("bad episode type", func(t *testing.T) {
		_, err := DecodeEpisode(strings.NewReader(`{"AniDB": {"Type": 42}}`))
		require.ErrorIs(t, err, ErrSchemaMismatch)

		var enumErr *ErrInvalidEnum
		assert.ErrorAs(t, err, &enumErr)
	})

	t.Run("bad duration", func(t *testing.T) {
		_, err := DecodeEpisode(strings.NewReader(`{"Duration": 1440}`))
		require.ErrorIs(t, err, ErrSchemaMismatch)
	})
}

func TestSeries_RoundTripKeepsWireKeys(t *testing.T) {
	series, err := DecodeSeries(strings.NewReader(seriesPayload))
	require.NoError(t, err)

	data, err := json.Marshal(series)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "AniDB")
	assert.Contains(t, raw, "Created")
	assert.Contains(t, raw, "Updated")
	assert.NotContains(t, raw, "AniDBEntity")
	assert.NotContains(t, raw, "CreatedAt")

	again, err := Unmarshal[Series](data)
	require.NoError(t, err)
	assert.Equal(t, series.AniDBEntity.ID, again.AniDBEntity.ID)
	assert.True(t, series.AniDBEntity.AirDate().Equal(*again.AniDBEntity.AirDate()))
	assert.True(t, series.LastUpdatedAt.Equal(again.LastUpdatedAt.Time))
	assert.Equal(t, series.Sizes, again.Sizes)
}

func TestZeroValueRecords_RoundTrip(t *testing.T) {
	t.Run("series", func(t *testing.T) {
		data, err := json.Marshal(Series{})
		require.NoError(t, err)

		series, err := Unmarshal[Series](data)
		require.NoError(t, err)
		assert.Equal(t, SeriesTypeUnknown, series.AniDBEntity.Type)
		assert.Equal(t, 0, series.IDs.ID)
		assert.Nil(t, series.AniDBEntity.AirDate())
	})

	t.Run("episode", func(t *testing.T) {
		data, err := json.Marshal(Episode{})
		require.NoError(t, err)

		episode, err := Unmarshal[Episode](data)
		require.NoError(t, err)
		assert.Equal(t, EpisodeTypeUnknown, episode.AniDBEntity.Type)
		assert.Equal(t, time.Duration(0), episode.Duration.Duration)
		assert.Nil(t, episode.Watched)
	})
}
