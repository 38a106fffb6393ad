package models

// Dashboard is the raw dashboard document as returned by the Grafana API.
// It stays a dynamic map so every field this tool does not understand
// round-trips untouched through edit and save.
type Dashboard map[string]any

// Panel is a single node of the dashboard panel tree. Row panels carry a
// "panels" array of children; leaf panels carry "targets".
type Panel map[string]any

// Target is one query bound to a panel.
type Target map[string]any

// DashboardMeta is the metadata block Grafana attaches to a retrieved
// dashboard. Only the fields this tool reads are typed.
type DashboardMeta struct {
	FolderID    int64  `json:"folderId"`
	FolderUID   string `json:"folderUid,omitempty"`
	FolderTitle string `json:"folderTitle,omitempty"`
	Slug        string `json:"slug,omitempty"`
}

// DashboardEnvelope mirrors the GET /api/dashboards/uid/:uid payload and,
// once stamped with Overwrite and FolderID, doubles as the POST
// /api/dashboards/db payload.
type DashboardEnvelope struct {
	Dashboard Dashboard      `json:"dashboard"`
	Meta      *DashboardMeta `json:"meta,omitempty"`
	Overwrite bool           `json:"overwrite,omitempty"`
	FolderID  int64          `json:"folderId"`
}

// Folder is one entry of GET /api/folders.
type Folder struct {
	ID    int64  `json:"id"`
	UID   string `json:"uid"`
	Title string `json:"title"`
}

// DashboardHit is one entry of GET /api/search.
type DashboardHit struct {
	UID   string `json:"uid"`
	Title string `json:"title"`
	Type  string `json:"type,omitempty"`
}

func (d Dashboard) Title() string {
	s, _ := d["title"].(string)
	return s
}

func (d Dashboard) Panels() []Panel {
	return panelsFromAny(d["panels"])
}

// HasSubPanels reports whether the panel carries a child-panel field at all.
// A panel with an empty or null "panels" array still counts as a container.
func (p Panel) HasSubPanels() bool {
	_, ok := p["panels"]
	return ok
}

func (p Panel) SubPanels() []Panel {
	return panelsFromAny(p["panels"])
}

func (p Panel) Title() string {
	s, _ := p["title"].(string)
	return s
}

func (p Panel) Targets() []Target {
	raw, _ := p["targets"].([]any)
	targets := make([]Target, 0, len(raw))
	for _, t := range raw {
		if m, ok := t.(map[string]any); ok {
			targets = append(targets, Target(m))
		}
	}
	return targets
}

func (t Target) Expr() string {
	s, _ := t["expr"].(string)
	return s
}

// SetExpr mutates the target in place; the enclosing Dashboard map sees the
// change because Target aliases the decoded JSON object.
func (t Target) SetExpr(expr string) {
	t["expr"] = expr
}

func panelsFromAny(raw any) []Panel {
	items, _ := raw.([]any)
	panels := make([]Panel, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			panels = append(panels, Panel(m))
		}
	}
	return panels
}
