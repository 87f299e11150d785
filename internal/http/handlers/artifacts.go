package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/rsamf/gamma/internal/http/response"
	"github.com/rsamf/gamma/internal/platform/logger"
	"github.com/rsamf/gamma/internal/services"
)

type ArtifactHandler struct {
	log       *logger.Logger
	artifacts services.ArtifactService
}

func NewArtifactHandler(log *logger.Logger, artifacts services.ArtifactService) *ArtifactHandler {
	return &ArtifactHandler{log: log.With("handler", "ArtifactHandler"), artifacts: artifacts}
}

// GET /api/artifacts/:project_id?prefix=
func (h *ArtifactHandler) List(c *gin.Context) {
	id, err := uuidParam(c, "project_id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	out, err := h.artifacts.List(c.Request.Context(), id, c.Query("prefix"))
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/artifacts/:project_id/download-url?key=
func (h *ArtifactHandler) DownloadURL(c *gin.Context) {
	id, err := uuidParam(c, "project_id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	url, err := h.artifacts.DownloadURL(c.Request.Context(), id, c.Query("key"))
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"url": url})
}

// GET /api/artifacts/:project_id/metadata?key=
func (h *ArtifactHandler) Metadata(c *gin.Context) {
	id, err := uuidParam(c, "project_id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	meta, err := h.artifacts.Metadata(c.Request.Context(), id, c.Query("key"))
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, meta)
}
