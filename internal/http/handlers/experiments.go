package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/rsamf/gamma/internal/http/response"
	"github.com/rsamf/gamma/internal/platform/logger"
	"github.com/rsamf/gamma/internal/services"
)

type ExperimentHandler struct {
	log         *logger.Logger
	experiments services.ExperimentService
}

func NewExperimentHandler(log *logger.Logger, experiments services.ExperimentService) *ExperimentHandler {
	return &ExperimentHandler{log: log.With("handler", "ExperimentHandler"), experiments: experiments}
}

// GET /api/experiments
func (h *ExperimentHandler) List(c *gin.Context) {
	out, err := h.experiments.ListExperiments(c.Request.Context())
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// runsSegment is both a static path segment and a legal experiment name.
// MLflow run ids are 32 hex characters, so a run id can never equal it.
const runsSegment = "runs"

// GET /api/experiments/:name/runs?filter_string=&max_results=
func (h *ExperimentHandler) ListRuns(c *gin.Context) {
	h.listRuns(c, c.Param("name"))
}

func (h *ExperimentHandler) listRuns(c *gin.Context, experiment string) {
	max, err := intQuery(c, "max_results", 100)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	out, err := h.experiments.ListRuns(c.Request.Context(), experiment, c.Query("filter_string"), max)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/experiments/runs/:run_id
//
// The router resolves /experiments/runs/runs here; it lists the runs of the
// experiment named "runs".
func (h *ExperimentHandler) GetRun(c *gin.Context) {
	if c.Param("run_id") == runsSegment {
		h.listRuns(c, runsSegment)
		return
	}
	run, err := h.experiments.GetRun(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, run)
}

// GET /api/experiments/runs/:run_id/metrics/:metric_key
func (h *ExperimentHandler) MetricHistory(c *gin.Context) {
	out, err := h.experiments.MetricHistory(c.Request.Context(), c.Param("run_id"), c.Param("metric_key"))
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/experiments/runs/:run_id/artifacts?path=
func (h *ExperimentHandler) ListArtifacts(c *gin.Context) {
	out, err := h.experiments.ListArtifacts(c.Request.Context(), c.Param("run_id"), c.Query("path"))
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}
