package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/platformbuilds/grafana-relabel/internal/config"
	"github.com/platformbuilds/grafana-relabel/internal/models"
	"github.com/platformbuilds/grafana-relabel/internal/relabel"
	"github.com/platformbuilds/grafana-relabel/pkg/logger"
)

// GrafanaService talks to the Grafana HTTP API. Transport errors and 5xx
// responses are retried with exponential backoff; every other failure is
// surfaced to the caller, which aborts the run.
type GrafanaService struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  logger.Logger

	username string
	password string

	// retry knobs
	retries   int
	backoffMS int // base backoff (ms) for attempt 1; then doubles
}

func NewGrafanaService(cfg config.GrafanaConfig, log logger.Logger) *GrafanaService {
	if cfg.Retries < 1 {
		cfg.Retries = 3
	}
	if cfg.BackoffMS < 1 {
		cfg.BackoffMS = 1000
	}
	return &GrafanaService{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Millisecond,
		},
		logger:    log,
		username:  cfg.Username,
		password:  cfg.Password,
		retries:   cfg.Retries,
		backoffMS: cfg.BackoffMS,
	}
}

// ListFolders returns every folder visible to the credential.
func (s *GrafanaService) ListFolders(ctx context.Context) ([]models.Folder, error) {
	var folders []models.Folder
	if err := s.getJSON(ctx, "/api/folders", &folders); err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}

// FindFolderID resolves a folder title to its numeric id. The scan is by
// exact title match, the same way the dashboard search endpoint groups by
// folder.
func (s *GrafanaService) FindFolderID(ctx context.Context, name string) (int64, error) {
	folders, err := s.ListFolders(ctx)
	if err != nil {
		return 0, err
	}
	for _, f := range folders {
		if f.Title == name {
			return f.ID, nil
		}
	}
	return 0, relabel.ErrFolderNotFound
}

// SearchDashboards lists the dashboards owned by one folder.
func (s *GrafanaService) SearchDashboards(ctx context.Context, folderID int64) ([]models.DashboardHit, error) {
	params := url.Values{}
	params.Set("type", "dash-db")
	params.Set("folderIds", strconv.FormatInt(folderID, 10))

	var hits []models.DashboardHit
	if err := s.getJSON(ctx, "/api/search?"+params.Encode(), &hits); err != nil {
		return nil, fmt.Errorf("search dashboards (folder %d): %w", folderID, err)
	}
	return hits, nil
}

// GetDashboard fetches the full dashboard document plus metadata by uid.
func (s *GrafanaService) GetDashboard(ctx context.Context, uid string) (*models.DashboardEnvelope, error) {
	var env models.DashboardEnvelope
	if err := s.getJSON(ctx, "/api/dashboards/uid/"+url.PathEscape(uid), &env); err != nil {
		return nil, fmt.Errorf("get dashboard %s: %w", uid, err)
	}
	return &env, nil
}

// UpdateDashboard saves a stamped envelope back through the db endpoint.
// The envelope must carry Overwrite and the original folder id or Grafana
// creates a duplicate instead of updating in place.
func (s *GrafanaService) UpdateDashboard(ctx context.Context, env *models.DashboardEnvelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode dashboard: %w", err)
	}

	resp, err := s.doRequestWithRetry(ctx, http.MethodPost, s.baseURL+"/api/dashboards/db", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("update dashboard: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("update dashboard: status %d: %s", resp.StatusCode, readBodySnippet(resp.Body))
	}
	return nil
}

func (s *GrafanaService) getJSON(ctx context.Context, path string, out any) error {
	resp, err := s.doRequestWithRetry(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, readBodySnippet(resp.Body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// doRequestWithRetry sends an HTTP request and retries on 5xx or transport
// errors, logging every retry so operators can see timeouts as they happen.
func (s *GrafanaService) doRequestWithRetry(ctx context.Context, method, urlStr string, body io.Reader) (*http.Response, error) {
	var bodyBytes []byte
	if body != nil {
		b, err := io.ReadAll(body)
		if err != nil {
			return nil, err
		}
		bodyBytes = b
	}

	var lastErr error
	backoff := time.Duration(s.backoffMS) * time.Millisecond

	for attempt := 1; attempt <= s.retries; attempt++ {
		var rdr io.Reader
		if bodyBytes != nil {
			rdr = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, urlStr, rdr)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if s.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+s.apiKey)
		} else if s.username != "" {
			req.SetBasicAuth(s.username, s.password)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			s.logger.Warn("Grafana request failed (transport)",
				"attempt", attempt, "method", method, "url", urlStr, "error", err)
		} else if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, readBodySnippet(resp.Body))
			_ = resp.Body.Close()
			s.logger.Warn("Grafana 5xx response, retrying",
				"attempt", attempt, "method", method, "url", urlStr, "status", resp.StatusCode)
		} else {
			return resp, nil
		}

		if attempt == s.retries || ctx.Err() != nil {
			break
		}

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.logger.Error("Grafana request exhausted retries",
		"method", method, "url", urlStr, "retries", s.retries, "error", lastErr)
	return nil, lastErr
}

// readBodySnippet returns a short text excerpt from an HTTP body for error
// messages.
func readBodySnippet(r io.Reader) string {
	const max = 8 << 10 // 8KB
	b, _ := io.ReadAll(io.LimitReader(r, max))
	return string(b)
}
