package usersync

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shokofin/shokofin/internal/config"
	"github.com/shokofin/shokofin/internal/database"
	"github.com/shokofin/shokofin/internal/shoko"
	"github.com/shokofin/shokofin/internal/tasks"
)

type watchedCall struct {
	id      int
	watched bool
}

// fakeClient serves canned episodes and records watched updates
type fakeClient struct {
	mu       sync.Mutex
	series   []shoko.Series
	episodes map[int][]shoko.Episode
	fetchErr error
	watched  []watchedCall
}

func (c *fakeClient) ListSeries(ctx context.Context) ([]shoko.Series, error) {
	return c.series, nil
}

func (c *fakeClient) GetSeriesEpisodes(ctx context.Context, seriesID int) ([]shoko.Episode, error) {
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	return c.episodes[seriesID], nil
}

func (c *fakeClient) SetEpisodeWatched(ctx context.Context, id int, watched bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watched = append(c.watched, watchedCall{id: id, watched: watched})
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(&config.DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "sync.db"),
		MaxConnections: 1,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func episode(id, series int, watched *time.Time, resume time.Duration, fileIDs ...int) shoko.Episode {
	ep := shoko.Episode{
		IDs:             shoko.EpisodeIDs{IDs: shoko.IDs{ID: id}, ParentSeries: series},
		CrossReferences: []shoko.CrossReference{},
	}
	if watched != nil {
		ts := shoko.NewTimestamp(*watched)
		ep.Watched = &ts
	}
	if resume > 0 {
		d := shoko.NewDuration(resume)
		ep.ResumePosition = &d
	}
	for _, fid := range fileIDs {
		ep.CrossReferences = append(ep.CrossReferences, shoko.CrossReference{FileID: fid})
	}
	return ep
}

func newTestManager(t *testing.T, client *fakeClient, series []int) (*Manager, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	return NewManager(client, db, series, nil), db
}

func TestManager_Import(t *testing.T) {
	watchedAt := time.Date(2024, time.February, 10, 21, 0, 0, 0, time.UTC)
	client := &fakeClient{episodes: map[int][]shoko.Episode{
		1: {
			episode(101, 1, &watchedAt, 0, 9001),
			episode(102, 1, nil, 12*time.Minute),
		},
		2: {episode(201, 2, nil, 0)},
	}}
	manager, db := newTestManager(t, client, []int{1, 2})

	var reports []float64
	err := manager.ScanAndSync(context.Background(), tasks.SyncDirectionImport, tasks.ProgressFunc(func(p float64) {
		reports = append(reports, p)
	}))
	require.NoError(t, err)

	assert.Equal(t, 0.0, reports[0])
	assert.Equal(t, 100.0, reports[len(reports)-1])
	for i := 1; i < len(reports); i++ {
		assert.GreaterOrEqual(t, reports[i], reports[i-1])
	}

	played, err := database.GetUserData(db, 101)
	require.NoError(t, err)
	require.NotNil(t, played)
	assert.True(t, played.Played)
	assert.Equal(t, 1, played.PlayCount)
	assert.Equal(t, 9001, played.FileID)
	require.NotNil(t, played.LastPlayedAt)
	assert.True(t, played.LastPlayedAt.Equal(watchedAt))

	resumed, err := database.GetUserData(db, 102)
	require.NoError(t, err)
	assert.False(t, resumed.Played)
	assert.Equal(t, int64(12*time.Minute/100), resumed.ResumeTicks)

	runs, err := database.RecentSyncRuns(db, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "Import", runs[0].Direction)
	assert.Equal(t, database.SyncRunCompleted, runs[0].Status)
	assert.Equal(t, 3, runs[0].Episodes)
	assert.Equal(t, 3, runs[0].Changed)

	// a second pass finds nothing new
	require.NoError(t, manager.ScanAndSync(context.Background(), tasks.SyncDirectionImport, nil))
	runs, err = database.RecentSyncRuns(db, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, runs[0].Changed)

	again, err := database.GetUserData(db, 101)
	require.NoError(t, err)
	assert.Equal(t, 1, again.PlayCount)
	assert.Empty(t, client.watched)
}

func TestManager_ImportAllSeries(t *testing.T) {
	client := &fakeClient{
		series:   []shoko.Series{{IDs: shoko.SeriesIDs{IDs: shoko.IDs{ID: 7}}, Name: "Mushishi"}},
		episodes: map[int][]shoko.Episode{7: {episode(701, 7, nil, 0)}},
	}
	manager, db := newTestManager(t, client, nil)

	require.NoError(t, manager.ScanAndSync(context.Background(), tasks.SyncDirectionImport, nil))

	cached, err := database.LoadSeries(db, 7)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "Mushishi", cached.Name)

	row, err := database.GetUserData(db, 701)
	require.NoError(t, err)
	assert.NotNil(t, row)
}

func TestManager_Export(t *testing.T) {
	client := &fakeClient{}
	manager, db := newTestManager(t, client, []int{1})

	require.NoError(t, database.SaveUserData(db, &database.UserData{EpisodeID: 11, SeriesID: 1, Played: true}))
	require.NoError(t, database.SaveUserData(db, &database.UserData{EpisodeID: 12, SeriesID: 1}))
	require.NoError(t, database.SaveUserData(db, &database.UserData{EpisodeID: 21, SeriesID: 2, Played: true}))

	require.NoError(t, manager.ScanAndSync(context.Background(), tasks.SyncDirectionExport, nil))

	assert.Equal(t, []watchedCall{{id: 11, watched: true}, {id: 12, watched: false}}, client.watched)
}

func TestManager_Sync(t *testing.T) {
	old := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	client := &fakeClient{episodes: map[int][]shoko.Episode{
		1: {
			episode(1, 1, &recent, 0), // remote newer: imported
			episode(2, 1, &old, 0),    // local newer and unwatched: exported
			episode(3, 1, nil, 0),     // remote has no date, local played: exported
			episode(4, 1, nil, 0),     // nothing local: imported
		},
	}}
	manager, db := newTestManager(t, client, []int{1})

	require.NoError(t, database.SaveUserData(db, &database.UserData{EpisodeID: 1, SeriesID: 1, ModifiedAt: old}))
	require.NoError(t, database.SaveUserData(db, &database.UserData{EpisodeID: 2, SeriesID: 1, ModifiedAt: recent}))
	require.NoError(t, database.SaveUserData(db, &database.UserData{EpisodeID: 3, SeriesID: 1, Played: true, ModifiedAt: recent}))

	require.NoError(t, manager.ScanAndSync(context.Background(), tasks.SyncDirectionSync, nil))

	assert.ElementsMatch(t, []watchedCall{{id: 2, watched: false}, {id: 3, watched: true}}, client.watched)

	first, err := database.GetUserData(db, 1)
	require.NoError(t, err)
	assert.True(t, first.Played)

	fourth, err := database.GetUserData(db, 4)
	require.NoError(t, err)
	assert.NotNil(t, fourth)
}

func TestManager_SyncRemoteUnwatch(t *testing.T) {
	played := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	unwatched := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	ep := episode(5, 1, nil, 0)
	ep.LastUpdatedAt = shoko.NewTimestamp(unwatched)
	stale := episode(6, 1, nil, 0)
	stale.LastUpdatedAt = shoko.NewTimestamp(played.Add(-time.Hour))

	client := &fakeClient{episodes: map[int][]shoko.Episode{1: {ep, stale}}}
	manager, db := newTestManager(t, client, []int{1})

	require.NoError(t, database.SaveUserData(db, &database.UserData{EpisodeID: 5, SeriesID: 1, Played: true, PlayCount: 1, ModifiedAt: played}))
	require.NoError(t, database.SaveUserData(db, &database.UserData{EpisodeID: 6, SeriesID: 1, Played: true, PlayCount: 1, ModifiedAt: played}))

	require.NoError(t, manager.ScanAndSync(context.Background(), tasks.SyncDirectionSync, nil))

	// the later unwatch in Shoko is imported, the older one is overwritten
	assert.Equal(t, []watchedCall{{id: 6, watched: true}}, client.watched)

	row, err := database.GetUserData(db, 5)
	require.NoError(t, err)
	assert.False(t, row.Played)
	assert.Nil(t, row.LastPlayedAt)
}

func TestManager_Cancelled(t *testing.T) {
	client := &fakeClient{episodes: map[int][]shoko.Episode{1: {episode(1, 1, nil, 0)}}}
	manager, db := newTestManager(t, client, []int{1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := manager.ScanAndSync(ctx, tasks.SyncDirectionImport, nil)
	assert.ErrorIs(t, err, context.Canceled)

	rows, err := database.ListUserData(db)
	require.NoError(t, err)
	assert.Empty(t, rows)

	runs, err := database.RecentSyncRuns(db, 1)
	require.NoError(t, err)
	assert.Equal(t, database.SyncRunCanceled, runs[0].Status)
}

func TestManager_Failure(t *testing.T) {
	fetchErr := errors.New("connection refused")
	client := &fakeClient{fetchErr: fetchErr}
	manager, db := newTestManager(t, client, []int{1})

	err := manager.ScanAndSync(context.Background(), tasks.SyncDirectionImport, nil)
	assert.ErrorIs(t, err, fetchErr)

	runs, err := database.RecentSyncRuns(db, 1)
	require.NoError(t, err)
	assert.Equal(t, database.SyncRunFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "connection refused")
}

func TestManager_InvalidDirection(t *testing.T) {
	manager, _ := newTestManager(t, &fakeClient{}, nil)

	err := manager.ScanAndSync(context.Background(), tasks.SyncDirection("Sideways"), nil)
	var dirErr *tasks.ErrInvalidDirection
	assert.ErrorAs(t, err, &dirErr)
}

func TestManager_DrivesImportTask(t *testing.T) {
	client := &fakeClient{episodes: map[int][]shoko.Episode{1: {episode(1, 1, nil, 0)}}}
	manager, db := newTestManager(t, client, []int{1})

	registry := tasks.NewRegistry(nil)
	require.NoError(t, registry.Register(tasks.NewImportUserDataTask(manager)))
	require.NoError(t, registry.Run(context.Background(), "ShokoImportUserData", nil))

	row, err := database.GetUserData(db, 1)
	require.NoError(t, err)
	assert.NotNil(t, row)
}
