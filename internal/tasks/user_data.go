package tasks

import "context"

const categoryShokofin = "Shokofin"

// userDataTask forwards to the sync manager with a fixed direction. It keeps
// no state of its own and adds no retry; failures from the manager are
// returned unchanged.
type userDataTask struct {
	manager     SyncManager
	direction   SyncDirection
	name        string
	key         string
	description string
}

func (t *userDataTask) Name() string                   { return t.name }
func (t *userDataTask) Key() string                    { return t.key }
func (t *userDataTask) Description() string            { return t.description }
func (t *userDataTask) Category() string               { return categoryShokofin }
func (t *userDataTask) IsHidden() bool                 { return false }
func (t *userDataTask) IsEnabled() bool                { return false }
func (t *userDataTask) IsLogged() bool                 { return true }
func (t *userDataTask) DefaultTriggers() []TriggerInfo { return []TriggerInfo{} }

// Execute runs the sync. A context that is already done returns its error
// without touching the manager.
func (t *userDataTask) Execute(ctx context.Context, progress Progress) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if progress == nil {
		progress = NopProgress
	}
	return t.manager.ScanAndSync(ctx, t.direction, progress)
}

// ImportUserDataTask imports watch state from Shoko into the local store
type ImportUserDataTask struct {
	userDataTask
}

// NewImportUserDataTask creates the import task
func NewImportUserDataTask(manager SyncManager) *ImportUserDataTask {
	return &ImportUserDataTask{userDataTask{
		manager:     manager,
		direction:   SyncDirectionImport,
		name:        "Import User Data",
		key:         "ShokoImportUserData",
		description: "Import the user-data stored in Shoko for every synced series into the local store.",
	}}
}

// ExportUserDataTask pushes local watch state to Shoko
type ExportUserDataTask struct {
	userDataTask
}

// NewExportUserDataTask creates the export task
func NewExportUserDataTask(manager SyncManager) *ExportUserDataTask {
	return &ExportUserDataTask{userDataTask{
		manager:     manager,
		direction:   SyncDirectionExport,
		name:        "Export User Data",
		key:         "ShokoExportUserData",
		description: "Export the locally stored user-data to Shoko.",
	}}
}

// SyncUserDataTask reconciles watch state in both directions
type SyncUserDataTask struct {
	userDataTask
}

// NewSyncUserDataTask creates the two-way sync task
func NewSyncUserDataTask(manager SyncManager) *SyncUserDataTask {
	return &SyncUserDataTask{userDataTask{
		manager:     manager,
		direction:   SyncDirectionSync,
		name:        "Sync User Data",
		key:         "ShokoSyncUserData",
		description: "Synchronize user-data between Shoko and the local store, keeping the most recent change.",
	}}
}
