package relabel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/grafana-relabel/internal/models"
)

func panelsFromJSON(t *testing.T, doc string) []models.Panel {
	t.Helper()
	var d models.Dashboard
	require.NoError(t, json.Unmarshal([]byte(doc), &d))
	return d.Panels()
}

func titles(panels []models.Panel) []string {
	out := make([]string, 0, len(panels))
	for _, p := range panels {
		out = append(out, p.Title())
	}
	return out
}

func TestFlattenPanels_MixedDepths(t *testing.T) {
	panels := panelsFromJSON(t, `{
		"panels": [
			{"title": "a"},
			{"title": "row1", "panels": [
				{"title": "b"},
				{"title": "row2", "panels": [
					{"title": "c"},
					{"title": "row3", "panels": [
						{"title": "d"}
					]}
				]}
			]},
			{"title": "e"}
		]
	}`)

	leaves := FlattenPanels(panels)
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, titles(leaves))
}

func TestFlattenPanels_EmptyRowDropped(t *testing.T) {
	panels := panelsFromJSON(t, `{
		"panels": [
			{"title": "row", "panels": []},
			{"title": "leaf"}
		]
	}`)

	leaves := FlattenPanels(panels)
	require.Equal(t, []string{"leaf"}, titles(leaves))
}

func TestFlattenPanels_NullChildListIsContainer(t *testing.T) {
	panels := panelsFromJSON(t, `{
		"panels": [
			{"title": "row", "panels": null},
			{"title": "leaf"}
		]
	}`)

	leaves := FlattenPanels(panels)
	require.Equal(t, []string{"leaf"}, titles(leaves))
}

func TestFlattenPanels_NoPanels(t *testing.T) {
	require.Empty(t, FlattenPanels(nil))
	require.Empty(t, FlattenPanels(panelsFromJSON(t, `{"panels": []}`)))
}

func TestFlattenPanels_DeepNesting(t *testing.T) {
	// A chain of containers deep enough to blow a recursive traversal's
	// stack must still flatten to the single leaf at the bottom.
	leaf := models.Panel{"title": "bottom"}
	current := leaf
	for i := 0; i < 100000; i++ {
		current = models.Panel{"title": "row", "panels": []any{map[string]any(current)}}
	}

	leaves := FlattenPanels([]models.Panel{current})
	require.Equal(t, []string{"bottom"}, titles(leaves))
}
