package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rsamf/gamma/internal/http/response"
	"github.com/rsamf/gamma/internal/platform/logger"
	"github.com/rsamf/gamma/internal/services"
)

type ProjectHandler struct {
	log      *logger.Logger
	projects services.ProjectService
	agent    services.AgentService
}

func NewProjectHandler(log *logger.Logger, projects services.ProjectService, agent services.AgentService) *ProjectHandler {
	return &ProjectHandler{log: log.With("handler", "ProjectHandler"), projects: projects, agent: agent}
}

// GET /api/projects?owner_id=
func (h *ProjectHandler) List(c *gin.Context) {
	ownerID, err := optionalUUIDQuery(c, "owner_id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	out, err := h.projects.List(c.Request.Context(), ownerID)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	p, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, p)
}

// POST /api/projects?owner_id=
func (h *ProjectHandler) Create(c *gin.Context) {
	ownerID, err := requiredUUIDQuery(c, "owner_id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	var req services.CreateProjectInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	p, err := h.projects.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, p)
}

// PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	var patch services.ProjectPatch
	if err := bindJSON(c, &patch); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	p, err := h.projects.Update(c.Request.Context(), id, patch)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, p)
}

// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	if err := h.projects.Delete(c.Request.Context(), id); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/projects/:id/commits/:sha/diff
func (h *ProjectHandler) CommitDiff(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	diff, err := h.agent.CommitDiff(c.Request.Context(), id, c.Param("sha"))
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"commit_sha": c.Param("sha"), "diff": diff})
}

// GET /api/projects/:id/files?path=&ref=
func (h *ProjectHandler) FileContent(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	path, ref := c.Query("path"), c.Query("ref")
	content, err := h.projects.FileContent(c.Request.Context(), id, path, ref)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"path": path, "ref": ref, "content": content})
}

// POST /api/projects/:id/commits
func (h *ProjectHandler) CommitFiles(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	var req services.CommitFilesInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	sha, err := h.projects.CommitFiles(c.Request.Context(), id, req)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"commit_sha": sha, "branch": req.Branch})
}

// GET /api/github/repos?owner_id=
func (h *ProjectHandler) ListGitHubRepos(c *gin.Context) {
	ownerID, err := requiredUUIDQuery(c, "owner_id")
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	repos, err := h.projects.ListGitHubRepos(c.Request.Context(), ownerID)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, repos)
}
