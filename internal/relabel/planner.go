package relabel

import (
	"strings"

	"github.com/platformbuilds/grafana-relabel/internal/models"
)

const (
	unnamedDashboard = "Unnamed Dashboard"
	unnamedPanel     = "Unnamed Panel"
)

// Plan rewrites every qualifying target expression in the dashboard in place
// and reports what changed. A missing title, panel list, target list or expr
// is treated as "nothing to do here", never as an error.
//
// When at least one target changed, the envelope is stamped the way the save
// endpoint expects an update: Overwrite set, FolderID carried over from the
// retrieved metadata (0 when metadata is absent) so the dashboard stays in
// its folder instead of being duplicated.
func Plan(env *models.DashboardEnvelope, req models.RewriteRequest, folderTitle string) ([]models.ChangeRecord, bool) {
	if env == nil || env.Dashboard == nil {
		return nil, false
	}

	dashboardTitle := env.Dashboard.Title()
	if dashboardTitle == "" {
		dashboardTitle = unnamedDashboard
	}

	var records []models.ChangeRecord
	modified := false

	for _, panel := range FlattenPanels(env.Dashboard.Panels()) {
		for _, target := range panel.Targets() {
			expr := target.Expr()
			// Substring pre-check only; Rewrite decides whether a real
			// matcher token is present.
			if expr == "" || !strings.Contains(expr, req.OldLabel) || !strings.Contains(expr, req.OldValue) {
				continue
			}
			newExpr, changed := Rewrite(expr, req)
			if !changed {
				continue
			}

			panelTitle := panel.Title()
			if panelTitle == "" {
				panelTitle = unnamedPanel
			}
			records = append(records, models.ChangeRecord{
				FolderTitle:    folderTitle,
				DashboardTitle: dashboardTitle,
				PanelTitle:     panelTitle,
				Before:         expr,
				After:          newExpr,
			})
			target.SetExpr(newExpr)
			modified = true
		}
	}

	if modified {
		env.Overwrite = true
		env.FolderID = 0
		if env.Meta != nil {
			env.FolderID = env.Meta.FolderID
		}
	}
	return records, modified
}
