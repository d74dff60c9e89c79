package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shokofin/shokofin/internal/database"
	"github.com/shokofin/shokofin/internal/shoko"
	"github.com/shokofin/shokofin/internal/tasks"
)

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatRuntime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "-"},
		{-time.Second, "-"},
		{24*time.Minute + 10*time.Second, "24:10"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{1500 * time.Millisecond, "0:02"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatRuntime(tt.in), tt.in.String())
	}
}

func TestSearchSeries(t *testing.T) {
	records := []database.SeriesRecord{
		{ShokoID: 1, Name: "Cowboy Bebop"},
		{ShokoID: 2, Name: "Mushishi"},
		{ShokoID: 3, Name: "Mushishi Zoku Shou"},
	}

	matches := searchSeries("mushi", records, 0)
	require.Len(t, matches, 2)
	assert.Equal(t, 2, matches[0].ShokoID)

	assert.Len(t, searchSeries("mushi", records, 1), 1)
	assert.Empty(t, searchSeries("zzz", records, 0))
}

func TestEpisodeRows(t *testing.T) {
	episodes := []shoko.Episode{
		{
			IDs:         shoko.EpisodeIDs{IDs: shoko.IDs{ID: 10}},
			Name:        "Asteroid Blues",
			Duration:    shoko.NewDuration(24 * time.Minute),
			AniDBEntity: shoko.EpisodeAniDB{Type: shoko.EpisodeTypeNormal, EpisodeNumber: 1},
		},
		{
			IDs:         shoko.EpisodeIDs{IDs: shoko.IDs{ID: 11}},
			IsHidden:    true,
			AniDBEntity: shoko.EpisodeAniDB{Type: shoko.EpisodeTypeSpecial, EpisodeNumber: 2},
		},
	}

	rows := episodeRows(episodes, false)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"10", "Normal", "1", "Asteroid Blues", "24:00", "0", ""}, rows[0])

	rows = episodeRows(episodes, true)
	require.Len(t, rows, 2)
	assert.Equal(t, "Episode 2", rows[1][3])
	assert.Equal(t, "-", rows[1][4])
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]tableColumn{textCol("Key"), numCol("Runs")},
		[][]string{{"ShokoImportUserData", "12"}, {"short"}, {"long", "3", "dropped"}},
	)
	assert.Contains(t, out, "Key")
	assert.Contains(t, out, "Runs")
	assert.Contains(t, out, "ShokoImportUserData")
	assert.Contains(t, out, "short")
	assert.NotContains(t, out, "dropped")

	assert.Empty(t, renderTable(nil, nil))
}

func TestRenderTable_StatusColumn(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	out := renderTable([]tableColumn{statusCol("Status")}, [][]string{{"completed"}, {"failed"}})
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "failed")
}

func TestTaskKeyFor(t *testing.T) {
	assert.Equal(t, "ShokoImportUserData", taskKeyFor(tasks.SyncDirectionImport))
	assert.Equal(t, "ShokoExportUserData", taskKeyFor(tasks.SyncDirectionExport))
	assert.Equal(t, "ShokoSyncUserData", taskKeyFor(tasks.SyncDirectionSync))
}

func TestTaskRows(t *testing.T) {
	rows := taskRows([]tasks.Task{tasks.NewImportUserDataTask(nil)})
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"ShokoImportUserData", "Import User Data", "Shokofin", "false", "manual"}, rows[0])
}

type blockingTask struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingTask) Name() string                         { return "Blocking" }
func (b *blockingTask) Key() string                          { return "Blocking" }
func (b *blockingTask) Description() string                  { return "" }
func (b *blockingTask) Category() string                     { return "Test" }
func (b *blockingTask) IsHidden() bool                       { return false }
func (b *blockingTask) IsEnabled() bool                      { return true }
func (b *blockingTask) IsLogged() bool                       { return false }
func (b *blockingTask) DefaultTriggers() []tasks.TriggerInfo { return nil }

func (b *blockingTask) Execute(ctx context.Context, progress tasks.Progress) error {
	close(b.started)
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestTaskTriggerHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	task := &blockingTask{started: make(chan struct{}), release: make(chan struct{})}
	registry := tasks.NewRegistry(nil)
	require.NoError(t, registry.Register(task))

	runner := newTaskRunner(ctx, registry)
	handler := taskTriggerHandler(runner)
	serve := func(method, path string) int {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(method, path, nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusMethodNotAllowed, serve(http.MethodGet, "/tasks/Blocking/run"))
	assert.Equal(t, http.StatusNotFound, serve(http.MethodPost, "/tasks/Blocking"))
	assert.Equal(t, http.StatusNotFound, serve(http.MethodPost, "/tasks/Missing/run"))

	assert.Equal(t, http.StatusAccepted, serve(http.MethodPost, "/tasks/Blocking/run"))
	<-task.started
	require.Eventually(t, func() bool {
		result, _ := registry.LastResult("Blocking")
		return result.Status == tasks.StatusRunning
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, http.StatusConflict, serve(http.MethodPost, "/tasks/Blocking/run"))

	close(task.release)
	require.Eventually(t, func() bool {
		result, _ := registry.LastResult("Blocking")
		return result.Status == tasks.StatusCompleted
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, runner.Wait(context.Background()))
}

// slowCancelTask takes a while to wind down after its context is cancelled,
// like a sync recording its final state
type slowCancelTask struct {
	blockingTask
	finished chan struct{}
}

func (s *slowCancelTask) Key() string { return "SlowCancel" }

func (s *slowCancelTask) Execute(ctx context.Context, progress tasks.Progress) error {
	close(s.started)
	<-ctx.Done()
	time.Sleep(50 * time.Millisecond)
	close(s.finished)
	return ctx.Err()
}

func TestTaskRunner_WaitForCancelledTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	task := &slowCancelTask{
		blockingTask: blockingTask{started: make(chan struct{})},
		finished:     make(chan struct{}),
	}
	registry := tasks.NewRegistry(nil)
	require.NoError(t, registry.Register(task))

	runner := newTaskRunner(ctx, registry)
	runner.Start("SlowCancel")
	<-task.started
	cancel()

	require.NoError(t, runner.Wait(context.Background()))

	select {
	case <-task.finished:
	default:
		t.Fatal("Wait returned before the task finished")
	}
	result, ok := registry.LastResult("SlowCancel")
	require.True(t, ok)
	assert.Equal(t, tasks.StatusCanceled, result.Status)
}

func TestTaskRunner_WaitBoundedByContext(t *testing.T) {
	task := &blockingTask{started: make(chan struct{}), release: make(chan struct{})}
	defer close(task.release)

	registry := tasks.NewRegistry(nil)
	require.NoError(t, registry.Register(task))

	runner := newTaskRunner(context.Background(), registry)
	runner.Start("Blocking")
	<-task.started

	waitCtx, stop := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer stop()
	assert.ErrorIs(t, runner.Wait(waitCtx), context.DeadlineExceeded)
}

func TestReleaseOptions(t *testing.T) {
	newCmd := func(args ...string) *cobra.Command {
		cmd := &cobra.Command{}
		addReleaseFlags(cmd)
		require.NoError(t, cmd.ParseFlags(args))
		return cmd
	}

	opts, err := releaseOptions(newCmd("--version", "4.0.0.9"))
	require.NoError(t, err)
	assert.Equal(t, 5, opts.Keep)
	assert.Equal(t, "./artifacts/shoko_4.0.0.9.zip", opts.Artifact)

	opts, err = releaseOptions(newCmd("--keep", "2", "--artifact", "out.zip"))
	require.NoError(t, err)
	assert.Equal(t, 2, opts.Keep)
	assert.Equal(t, "out.zip", opts.Artifact)

	for _, keep := range []string{"0", "-1"} {
		_, err := releaseOptions(newCmd("--keep", keep))
		assert.Error(t, err, keep)
	}
}
