package relabel

import (
	"fmt"
	"os"
	"strings"

	"github.com/platformbuilds/grafana-relabel/internal/models"
)

// FormatChangeLog renders records as consecutive three-line blocks:
//
//	{folder}: {dashboard}: {panel}
//	  BEFORE: {expr}
//	  AFTER:  {newExpr}
func FormatChangeLog(records []models.ChangeRecord) string {
	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "%s: %s: %s\n  BEFORE: %s\n  AFTER:  %s\n",
			r.FolderTitle, r.DashboardTitle, r.PanelTitle, r.Before, r.After)
	}
	return b.String()
}

// WriteChangeLog writes the rendered records to path, truncating any
// previous run's log.
func WriteChangeLog(path string, records []models.ChangeRecord) error {
	if err := os.WriteFile(path, []byte(FormatChangeLog(records)), 0o644); err != nil {
		return fmt.Errorf("write change log %s: %w", path, err)
	}
	return nil
}
