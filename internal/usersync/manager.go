package usersync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/shokofin/shokofin/internal/database"
	"github.com/shokofin/shokofin/internal/metrics"
	"github.com/shokofin/shokofin/internal/shoko"
	"github.com/shokofin/shokofin/internal/tasks"
)

// ShokoClient is the part of the Shoko API the manager needs
type ShokoClient interface {
	ListSeries(ctx context.Context) ([]shoko.Series, error)
	GetSeriesEpisodes(ctx context.Context, seriesID int) ([]shoko.Episode, error)
	SetEpisodeWatched(ctx context.Context, id int, watched bool) error
}

// Manager moves episode watch state between Shoko and the local store
type Manager struct {
	client ShokoClient
	db     *gorm.DB
	series []int
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a manager for the given series. An empty series list
// means every series on the server.
func NewManager(client ShokoClient, db *gorm.DB, series []int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		client: client,
		db:     db,
		series: series,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// stats counts what a run looked at and what it changed
type stats struct {
	episodes int
	changed  int
}

// ScanAndSync runs one pass in the given direction. Progress goes from 0 to
// 100 as episodes are processed. ctx is checked between episodes; a
// cancelled run stops there and returns ctx.Err().
func (m *Manager) ScanAndSync(ctx context.Context, direction tasks.SyncDirection, progress tasks.Progress) error {
	if _, err := tasks.ParseSyncDirection(string(direction)); err != nil {
		return err
	}
	if progress == nil {
		progress = tasks.NopProgress
	}

	run, err := database.StartSyncRun(m.db, direction.String())
	if err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}

	m.logger.Info("user data sync started", "direction", direction, "run", run.ID)
	progress.Report(0)

	var st stats
	switch direction {
	case tasks.SyncDirectionExport:
		st, err = m.export(ctx, progress)
	default:
		st, err = m.scan(ctx, direction, progress)
	}

	metrics.AddSyncEpisodes(direction.String(), st.episodes)
	metrics.AddSyncChanges(direction.String(), st.changed)

	status := database.SyncRunCompleted
	switch {
	case err == nil:
		progress.Report(100)
		metrics.SetLastSync(m.now())
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		status = database.SyncRunCanceled
	default:
		status = database.SyncRunFailed
	}

	run.Episodes = st.episodes
	run.Changed = st.changed
	if finishErr := database.FinishSyncRun(m.db, run, status, err); finishErr != nil {
		m.logger.Warn("failed to record sync run result", "run", run.ID, "error", finishErr)
	}

	m.logger.Info("user data sync finished",
		"direction", direction,
		"run", run.ID,
		"status", status,
		"episodes", st.episodes,
		"changed", st.changed)

	return err
}

// scan walks the episodes of every configured series and applies the
// import or two-way rules to each one
func (m *Manager) scan(ctx context.Context, direction tasks.SyncDirection, progress tasks.Progress) (stats, error) {
	var st stats

	seriesIDs, err := m.seriesIDs(ctx)
	if err != nil {
		return st, err
	}

	var episodes []shoko.Episode
	for _, id := range seriesIDs {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		list, err := m.client.GetSeriesEpisodes(ctx, id)
		if err != nil {
			return st, fmt.Errorf("failed to fetch episodes of series %d: %w", id, err)
		}
		episodes = append(episodes, list...)
	}

	for i := range episodes {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		changed, err := m.syncEpisode(ctx, direction, &episodes[i])
		if err != nil {
			return st, err
		}

		st.episodes++
		if changed {
			st.changed++
		}
		progress.Report(percent(i+1, len(episodes)))
	}

	return st, nil
}

func (m *Manager) syncEpisode(ctx context.Context, direction tasks.SyncDirection, episode *shoko.Episode) (bool, error) {
	local, err := database.GetUserData(m.db, episode.IDs.ID)
	if err != nil {
		return false, fmt.Errorf("failed to load user data of episode %d: %w", episode.IDs.ID, err)
	}

	if direction == tasks.SyncDirectionSync && local != nil && localIsNewer(local, episode) {
		if local.Played == episode.IsWatched() {
			return false, nil
		}
		if err := m.client.SetEpisodeWatched(ctx, episode.IDs.ID, local.Played); err != nil {
			return false, fmt.Errorf("failed to export episode %d: %w", episode.IDs.ID, err)
		}
		return true, nil
	}

	return m.importEpisode(local, episode)
}

// importEpisode copies the remote state into the store, remote wins
func (m *Manager) importEpisode(local *database.UserData, episode *shoko.Episode) (bool, error) {
	next := database.UserData{EpisodeID: episode.IDs.ID, SeriesID: episode.IDs.ParentSeries}
	if local != nil {
		next = *local
	}

	next.SeriesID = episode.IDs.ParentSeries
	if ids := episode.FileIDs(); len(ids) > 0 {
		next.FileID = ids[0]
	}

	next.Played = episode.IsWatched()
	next.LastPlayedAt = nil
	if episode.Watched != nil {
		watched := episode.Watched.Time.UTC()
		next.LastPlayedAt = &watched
	}
	next.ResumeTicks = 0
	if episode.ResumePosition != nil {
		next.ResumeTicks = episode.ResumePosition.Ticks()
	}
	if next.Played && (local == nil || !local.Played) {
		next.PlayCount++
	}

	if local != nil && sameState(local, &next) {
		return false, nil
	}

	next.ModifiedAt = m.now()
	if err := database.SaveUserData(m.db, &next); err != nil {
		return false, fmt.Errorf("failed to save user data of episode %d: %w", episode.IDs.ID, err)
	}
	return true, nil
}

// export pushes every stored play state to Shoko
func (m *Manager) export(ctx context.Context, progress tasks.Progress) (stats, error) {
	var st stats

	rows, err := database.ListUserData(m.db)
	if err != nil {
		return st, fmt.Errorf("failed to list user data: %w", err)
	}
	rows = m.filterRows(rows)

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		if err := m.client.SetEpisodeWatched(ctx, row.EpisodeID, row.Played); err != nil {
			return st, fmt.Errorf("failed to export episode %d: %w", row.EpisodeID, err)
		}
		st.episodes++
		st.changed++
		progress.Report(percent(i+1, len(rows)))
	}

	return st, nil
}

// seriesIDs returns the configured series, or every series on the server.
// Listed series are cached locally as a side effect.
func (m *Manager) seriesIDs(ctx context.Context) ([]int, error) {
	if len(m.series) > 0 {
		return m.series, nil
	}

	list, err := m.client.ListSeries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}

	ids := make([]int, 0, len(list))
	for i := range list {
		ids = append(ids, list[i].IDs.ID)
		if err := database.SaveSeries(m.db, &list[i]); err != nil {
			m.logger.Warn("failed to cache series", "series", list[i].IDs.ID, "error", err)
		}
	}
	return ids, nil
}

func (m *Manager) filterRows(rows []database.UserData) []database.UserData {
	if len(m.series) == 0 {
		return rows
	}

	wanted := make(map[int]bool, len(m.series))
	for _, id := range m.series {
		wanted[id] = true
	}

	filtered := rows[:0]
	for _, row := range rows {
		if wanted[row.SeriesID] {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// localIsNewer reports whether the stored state changed after the remote one.
// The remote change time is the watched date, or the episode's Updated time
// when it is unwatched. An episode with neither is treated as oldest.
func localIsNewer(local *database.UserData, episode *shoko.Episode) bool {
	switch {
	case episode.Watched != nil:
		return local.ModifiedAt.After(episode.Watched.Time)
	case !episode.LastUpdatedAt.IsZero():
		return local.ModifiedAt.After(episode.LastUpdatedAt.Time)
	default:
		return true
	}
}

func sameState(a, b *database.UserData) bool {
	if a.Played != b.Played || a.ResumeTicks != b.ResumeTicks || a.FileID != b.FileID || a.SeriesID != b.SeriesID {
		return false
	}
	switch {
	case a.LastPlayedAt == nil && b.LastPlayedAt == nil:
		return true
	case a.LastPlayedAt == nil || b.LastPlayedAt == nil:
		return false
	default:
		return a.LastPlayedAt.Equal(*b.LastPlayedAt)
	}
}

func percent(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(done) * 100 / float64(total)
}
