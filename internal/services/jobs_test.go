package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsamf/gamma/internal/data/repos"
	"github.com/rsamf/gamma/internal/data/repos/testutil"
	types "github.com/rsamf/gamma/internal/domain"
	"github.com/rsamf/gamma/internal/platform/apierr"
)

func TestJobServiceCreateAndUpdate(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewJobService(log, repos.NewTrainingJobRepo(db, log), repos.NewProjectRepo(db, log), &fakeTraining{})
	p := testutil.SeedProject(t, db, uuid.New(), "acme/vision", time.Now().UTC())

	_, err := svc.Create(t.Context(), CreateJobInput{ProjectID: p.ID, CommitSHA: "abc"})
	assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))
	_, err = svc.Create(t.Context(), CreateJobInput{ProjectID: uuid.New(), CommitSHA: "abc", Branch: "models"})
	assert.True(t, apierr.IsNotFound(err))
	_, err = svc.Create(t.Context(), CreateJobInput{ProjectID: p.ID, CommitSHA: "abc", Branch: "models", Status: "exploded"})
	assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))

	job, err := svc.Create(t.Context(), CreateJobInput{ProjectID: p.ID, CommitSHA: "abc", Branch: "models"})
	require.NoError(t, err)
	assert.Equal(t, types.JobPending, job.Status)

	_, err = svc.Update(t.Context(), job.ID, JobPatch{})
	assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))

	bad := types.JobStatus("exploded")
	_, err = svc.Update(t.Context(), job.ID, JobPatch{Status: &bad})
	assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))

	running := types.JobRunning
	name := "sm-job-1"
	updated, err := svc.Update(t.Context(), job.ID, JobPatch{Status: &running, SageMakerJobName: &name})
	require.NoError(t, err)
	assert.Equal(t, types.JobRunning, updated.Status)
	require.NotNil(t, updated.SageMakerJobName)
	assert.Equal(t, name, *updated.SageMakerJobName)

	_, err = svc.Update(t.Context(), uuid.New(), JobPatch{Status: &running})
	assert.True(t, apierr.IsNotFound(err))

	list, err := svc.List(t.Context(), &p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestJobServiceSageMakerStatus(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	training := &fakeTraining{}
	svc := NewJobService(log, repos.NewTrainingJobRepo(db, log), repos.NewProjectRepo(db, log), training)
	p := testutil.SeedProject(t, db, uuid.New(), "acme/vision", time.Now().UTC())
	job := testutil.SeedJob(t, db, p.ID, "abc", types.JobRunning, time.Now().UTC())

	_, err := svc.SageMakerStatus(t.Context(), job.ID)
	assert.True(t, apierr.IsNotFound(err))
	_, err = svc.SageMakerStatus(t.Context(), uuid.New())
	assert.True(t, apierr.IsNotFound(err))

	require.NoError(t, db.Model(job).Update("sagemaker_job_name", "sm-job-9").Error)
	status, err := svc.SageMakerStatus(t.Context(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "sm-job-9", training.described)
	assert.Equal(t, "InProgress", status.Status)
}
