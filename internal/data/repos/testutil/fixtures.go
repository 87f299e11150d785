package testutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/rsamf/gamma/internal/domain"
)

func SeedProject(tb testing.TB, tx *gorm.DB, ownerID uuid.UUID, repoFullName string, createdAt time.Time) *types.Project {
	tb.Helper()
	p := &types.Project{
		ID:                   uuid.New(),
		OwnerID:              ownerID,
		Name:                 repoFullName,
		GitHubRepoFullName:   repoFullName,
		GitHubInstallationID: 42,
		S3Bucket:             "gamma-artifacts",
		CreatedAt:            createdAt,
		UpdatedAt:            createdAt,
	}
	if err := tx.Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedJob(tb testing.TB, tx *gorm.DB, projectID uuid.UUID, sha string, status types.JobStatus, createdAt time.Time) *types.TrainingJob {
	tb.Helper()
	j := &types.TrainingJob{
		ID:        uuid.New(),
		ProjectID: projectID,
		CommitSHA: sha,
		Branch:    "models",
		Status:    status,
		CreatedAt: createdAt,
	}
	if err := tx.Create(j).Error; err != nil {
		tb.Fatalf("seed job: %v", err)
	}
	return j
}

func SeedAuthUser(tb testing.TB, tx *gorm.DB, id uuid.UUID, meta map[string]interface{}) {
	tb.Helper()
	raw, err := json.Marshal(meta)
	if err != nil {
		tb.Fatalf("marshal meta: %v", err)
	}
	if err := tx.Exec(`INSERT INTO auth.users (id, raw_user_meta_data) VALUES (?, ?)`, id.String(), string(raw)).Error; err != nil {
		tb.Fatalf("seed auth user: %v", err)
	}
}
