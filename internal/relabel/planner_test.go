package relabel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/grafana-relabel/internal/models"
)

func envelopeFromJSON(t *testing.T, doc string) *models.DashboardEnvelope {
	t.Helper()
	var env models.DashboardEnvelope
	require.NoError(t, json.Unmarshal([]byte(doc), &env))
	return &env
}

func TestPlan_SingleChange(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"dashboard": {
			"id": 17,
			"title": "API Overview",
			"panels": [
				{"title": "Uptime", "targets": [{"expr": "up{bla=\"bli\", job=\"x\"}"}]},
				{"title": "Errors", "targets": [{"expr": "rate(errors_total[5m])"}]}
			]
		},
		"meta": {"folderId": 42, "folderTitle": "Ops"}
	}`)

	records, modified := Plan(env, defaultReq, "Ops")
	require.True(t, modified)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "Ops", r.FolderTitle)
	assert.Equal(t, "API Overview", r.DashboardTitle)
	assert.Equal(t, "Uptime", r.PanelTitle)
	assert.Equal(t, `up{bla="bli", job="x"}`, r.Before)
	assert.Equal(t, `up{roni="taktook", job="x"}`, r.After)

	// Envelope stamped for an in-place update.
	assert.True(t, env.Overwrite)
	assert.Equal(t, int64(42), env.FolderID)

	// The mutation landed in the underlying dashboard document and nothing
	// else moved: the id is still there and the untouched target survived.
	raw, err := json.Marshal(env.Dashboard)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `up{roni=\"taktook\", job=\"x\"}`)
	assert.Contains(t, string(raw), "rate(errors_total[5m])")
	assert.Contains(t, string(raw), `"id":17`)
}

func TestPlan_NoChange(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"dashboard": {
			"title": "Quiet",
			"panels": [{"title": "p", "targets": [{"expr": "up{job=\"x\"}"}]}]
		},
		"meta": {"folderId": 42}
	}`)

	records, modified := Plan(env, defaultReq, "Ops")
	assert.False(t, modified)
	assert.Empty(t, records)
	assert.False(t, env.Overwrite)
}

func TestPlan_NestedRowTraversalOrder(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"dashboard": {
			"title": "Nested",
			"panels": [
				{"title": "first", "targets": [{"expr": "a{bla=\"bli\"}"}]},
				{"title": "row", "panels": [
					{"title": "second", "targets": [
						{"expr": "b{bla=\"bli\"}"},
						{"expr": "c{bla=\"bli\"}"}
					]}
				]},
				{"title": "third", "targets": [{"expr": "d{bla=\"bli\"}"}]}
			]
		}
	}`)

	records, modified := Plan(env, defaultReq, "Ops")
	require.True(t, modified)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"first", "second", "second", "third"}, []string{
		records[0].PanelTitle, records[1].PanelTitle, records[2].PanelTitle, records[3].PanelTitle,
	})
	assert.Equal(t, `a{bla="bli"}`, records[0].Before)
	assert.Equal(t, `b{bla="bli"}`, records[1].Before)
	assert.Equal(t, `c{bla="bli"}`, records[2].Before)
	assert.Equal(t, `d{bla="bli"}`, records[3].Before)
}

func TestPlan_DefaultTitles(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"dashboard": {
			"panels": [{"targets": [{"expr": "up{bla=\"bli\"}"}]}]
		}
	}`)

	records, modified := Plan(env, defaultReq, "Ops")
	require.True(t, modified)
	require.Len(t, records, 1)
	assert.Equal(t, "Unnamed Dashboard", records[0].DashboardTitle)
	assert.Equal(t, "Unnamed Panel", records[0].PanelTitle)
}

func TestPlan_MissingMetaDefaultsFolderZero(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"dashboard": {
			"title": "No Meta",
			"panels": [{"title": "p", "targets": [{"expr": "up{bla=\"bli\"}"}]}]
		}
	}`)

	_, modified := Plan(env, defaultReq, "Ops")
	require.True(t, modified)
	assert.True(t, env.Overwrite)
	assert.Equal(t, int64(0), env.FolderID)
}

func TestPlan_MissingFieldsTolerated(t *testing.T) {
	cases := []string{
		`{}`,
		`{"dashboard": {}}`,
		`{"dashboard": {"panels": []}}`,
		`{"dashboard": {"panels": [{}]}}`,
		`{"dashboard": {"panels": [{"targets": []}]}}`,
		`{"dashboard": {"panels": [{"targets": [{}]}]}}`,
		`{"dashboard": {"panels": [{"targets": [{"expr": ""}]}]}}`,
	}
	for _, doc := range cases {
		env := envelopeFromJSON(t, doc)
		records, modified := Plan(env, defaultReq, "Ops")
		assert.False(t, modified, "doc %s", doc)
		assert.Empty(t, records, "doc %s", doc)
	}
	_, modified := Plan(nil, defaultReq, "Ops")
	assert.False(t, modified)
}

func TestPlan_SubstringHintDoesNotSkipRealMatches(t *testing.T) {
	// Both label and value appear but only one target carries a real
	// matcher token; the other is a false positive the rewriter rejects.
	env := envelopeFromJSON(t, `{
		"dashboard": {
			"title": "Hints",
			"panels": [
				{"title": "real", "targets": [{"expr": "up{bla='bli'}"}]},
				{"title": "fake", "targets": [{"expr": "bla_total + bli_total"}]}
			]
		},
		"meta": {"folderId": 1}
	}`)

	records, modified := Plan(env, defaultReq, "Ops")
	require.True(t, modified)
	require.Len(t, records, 1)
	assert.Equal(t, "real", records[0].PanelTitle)
}
