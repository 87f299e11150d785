package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/rsamf/gamma/internal/http/response"
	"github.com/rsamf/gamma/internal/platform/logger"
	"github.com/rsamf/gamma/internal/services"
)

type JobHandler struct {
	log  *logger.Logger
	jobs services.JobService
}

func NewJobHandler(log *logger.Logger, jobs services.JobService) *JobHandler {
	return &JobHandler{log: log.With("handler", "JobHandler"), jobs: jobs}
}

// GET /api/jobs?project_id=
func (h *JobHandler) List(c *gin.Context) {
	projectID, err := optionalUUIDQuery(c, "project_id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	out, err := h.jobs.List(c.Request.Context(), projectID)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	job, err := h.jobs.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, job)
}

// POST /api/jobs
func (h *JobHandler) Create(c *gin.Context) {
	var req services.CreateJobInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	job, err := h.jobs.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, job)
}

// PATCH /api/jobs/:id
func (h *JobHandler) Update(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	var patch services.JobPatch
	if err := bindJSON(c, &patch); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	job, err := h.jobs.Update(c.Request.Context(), id, patch)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, job)
}

// GET /api/jobs/:id/sagemaker-status
func (h *JobHandler) SageMakerStatus(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	status, err := h.jobs.SageMakerStatus(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, status)
}

// GET /api/sagemaker/jobs?name_contains=&max_results=
func (h *JobHandler) ListSageMakerJobs(c *gin.Context) {
	max, err := intQuery(c, "max_results", 0)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	out, err := h.jobs.ListSageMakerJobs(c.Request.Context(), c.Query("name_contains"), max)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}
