package relabel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/grafana-relabel/internal/models"
)

func TestFormatChangeLog(t *testing.T) {
	records := []models.ChangeRecord{
		{
			FolderTitle:    "Ops",
			DashboardTitle: "API Overview",
			PanelTitle:     "Uptime",
			Before:         `up{bla="bli"}`,
			After:          `up{roni="taktook"}`,
		},
		{
			FolderTitle:    "Ops",
			DashboardTitle: "API Overview",
			PanelTitle:     "Errors",
			Before:         `err{bla='bli'}`,
			After:          `err{roni='taktook'}`,
		},
	}

	want := "Ops: API Overview: Uptime\n" +
		"  BEFORE: up{bla=\"bli\"}\n" +
		"  AFTER:  up{roni=\"taktook\"}\n" +
		"Ops: API Overview: Errors\n" +
		"  BEFORE: err{bla='bli'}\n" +
		"  AFTER:  err{roni='taktook'}\n"
	assert.Equal(t, want, FormatChangeLog(records))
}

func TestFormatChangeLog_Empty(t *testing.T) {
	assert.Equal(t, "", FormatChangeLog(nil))
}

func TestWriteChangeLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "changes_log.txt")
	records := []models.ChangeRecord{
		{FolderTitle: "f", DashboardTitle: "d", PanelTitle: "p", Before: "a", After: "b"},
	}

	require.NoError(t, WriteChangeLog(path, records))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "f: d: p\n  BEFORE: a\n  AFTER:  b\n", string(got))
}

func TestWriteChangeLog_TruncatesPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "changes_log.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, WriteChangeLog(path, nil))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}
