package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/rsamf/gamma/internal/data/repos"
	types "github.com/rsamf/gamma/internal/domain"
	"github.com/rsamf/gamma/internal/pkg/dbctx"
	"github.com/rsamf/gamma/internal/platform/apierr"
	"github.com/rsamf/gamma/internal/platform/logger"
	"github.com/rsamf/gamma/internal/platform/s3store"
)

type ArtifactService interface {
	List(ctx context.Context, projectID uuid.UUID, prefix string) ([]s3store.Object, error)
	DownloadURL(ctx context.Context, projectID uuid.UUID, key string) (string, error)
	Metadata(ctx context.Context, projectID uuid.UUID, key string) (*s3store.ObjectMetadata, error)
}

type artifactService struct {
	log      *logger.Logger
	projects repos.ProjectRepo
	store    ObjectStore
}

func NewArtifactService(log *logger.Logger, projects repos.ProjectRepo, store ObjectStore) ArtifactService {
	return &artifactService{log: log.With("service", "ArtifactService"), projects: projects, store: store}
}

func (s *artifactService) project(ctx context.Context, id uuid.UUID) (*types.Project, error) {
	p, err := s.projects.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apierr.NotFound("Project")
	}
	if p.S3Bucket == "" {
		return nil, apierr.Invalid("no_bucket", errors.New("project has no artifact bucket configured"))
	}
	return p, nil
}

// joinPrefix nests prefix under the project's base prefix.
func joinPrefix(base, prefix string) string {
	switch {
	case prefix == "":
		return base
	case base == "":
		return prefix
	default:
		return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(prefix, "/")
	}
}

// List returns objects under the project's prefix joined with prefix.
func (s *artifactService) List(ctx context.Context, projectID uuid.UUID, prefix string) ([]s3store.Object, error) {
	p, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.store.ListObjects(ctx, p.S3Bucket, joinPrefix(p.S3Prefix, prefix), 0)
}

func (s *artifactService) DownloadURL(ctx context.Context, projectID uuid.UUID, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", apierr.Invalid("missing_key", errors.New("key is required"))
	}
	p, err := s.project(ctx, projectID)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, p.S3Bucket, key, 0)
}

func (s *artifactService) Metadata(ctx context.Context, projectID uuid.UUID, key string) (*s3store.ObjectMetadata, error) {
	if strings.TrimSpace(key) == "" {
		return nil, apierr.Invalid("missing_key", errors.New("key is required"))
	}
	p, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.store.HeadObject(ctx, p.S3Bucket, key)
}
