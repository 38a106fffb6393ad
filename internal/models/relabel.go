package models

// RewriteRequest is the matcher pair to find and its replacement. It is
// constant for the duration of a run.
type RewriteRequest struct {
	OldLabel string
	OldValue string
	NewLabel string
	NewValue string
}

// ChangeRecord captures one rewritten expression. Records are immutable once
// created and accumulate in traversal order across the run.
type ChangeRecord struct {
	FolderTitle    string
	DashboardTitle string
	PanelTitle     string
	Before         string
	After          string
}
