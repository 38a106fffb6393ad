package relabel

import (
	"context"
	"errors"
	"fmt"

	"github.com/platformbuilds/grafana-relabel/internal/models"
	"github.com/platformbuilds/grafana-relabel/pkg/logger"
)

// ErrFolderNotFound is returned by GrafanaAPI implementations when the
// configured folder name does not resolve to any folder.
var ErrFolderNotFound = errors.New("folder not found")

// GrafanaAPI is the slice of the Grafana HTTP API the run loop consumes.
type GrafanaAPI interface {
	FindFolderID(ctx context.Context, name string) (int64, error)
	SearchDashboards(ctx context.Context, folderID int64) ([]models.DashboardHit, error)
	GetDashboard(ctx context.Context, uid string) (*models.DashboardEnvelope, error)
	UpdateDashboard(ctx context.Context, env *models.DashboardEnvelope) error
}

// Options carries the per-run parameters of the rewrite.
type Options struct {
	Folder  string
	Request models.RewriteRequest
	LogPath string
	DryRun  bool
}

// Service iterates every dashboard of one folder, plans the rewrite, saves
// modified dashboards back and writes the accumulated change log.
type Service struct {
	grafana GrafanaAPI
	opts    Options
	logger  logger.Logger
}

func NewService(grafana GrafanaAPI, opts Options, log logger.Logger) *Service {
	return &Service{
		grafana: grafana,
		opts:    opts,
		logger:  log,
	}
}

// Run executes one rewrite pass. It fails fast: the first fetch or save
// error aborts the run, and a folder that does not resolve aborts before any
// dashboard is touched.
func (s *Service) Run(ctx context.Context) error {
	folderID, err := s.grafana.FindFolderID(ctx, s.opts.Folder)
	if err != nil {
		if errors.Is(err, ErrFolderNotFound) {
			s.logger.Error("folder not found, nothing processed", "folder", s.opts.Folder)
		}
		return fmt.Errorf("resolve folder %q: %w", s.opts.Folder, err)
	}

	hits, err := s.grafana.SearchDashboards(ctx, folderID)
	if err != nil {
		return fmt.Errorf("list dashboards in folder %q: %w", s.opts.Folder, err)
	}
	s.logger.Info("processing folder", "folder", s.opts.Folder, "folderId", folderID, "dashboards", len(hits))

	var records []models.ChangeRecord
	for _, hit := range hits {
		if hit.UID == "" {
			continue
		}
		env, err := s.grafana.GetDashboard(ctx, hit.UID)
		if err != nil {
			return fmt.Errorf("fetch dashboard %s: %w", hit.UID, err)
		}

		recs, modified := Plan(env, s.opts.Request, s.opts.Folder)
		records = append(records, recs...)
		if !modified {
			s.logger.Debug("dashboard unchanged", "uid", hit.UID, "title", hit.Title)
			continue
		}

		if s.opts.DryRun {
			s.logger.Info("dry run, skipping save", "uid", hit.UID, "title", hit.Title, "changes", len(recs))
			continue
		}
		if err := s.grafana.UpdateDashboard(ctx, env); err != nil {
			return fmt.Errorf("save dashboard %s: %w", hit.UID, err)
		}
		s.logger.Info("dashboard updated", "uid", hit.UID, "title", hit.Title, "changes", len(recs))
	}

	if err := WriteChangeLog(s.opts.LogPath, records); err != nil {
		return err
	}
	s.logger.Info("run complete", "changes", len(records), "log", s.opts.LogPath, "dryRun", s.opts.DryRun)
	return nil
}
