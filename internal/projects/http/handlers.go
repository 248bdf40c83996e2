package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pom-bolt/pombolt-backend/internal/deploy"
	"github.com/pom-bolt/pombolt-backend/internal/projects/domain"
	"github.com/pom-bolt/pombolt-backend/internal/projects/service"
	syncsvc "github.com/pom-bolt/pombolt-backend/internal/sync"
)

// Handler exposes the project state manager, sync service, and deployment
// manager over HTTP. It is a thin dispatch layer; all invariants live below.
type Handler struct {
	projects *service.ProjectService
	sync     *syncsvc.Service
	deploys  *deploy.Manager
}

// NewHandler creates the HTTP handler set.
func NewHandler(projects *service.ProjectService, sync *syncsvc.Service, deploys *deploy.Manager) *Handler {
	return &Handler{projects: projects, sync: sync, deploys: deploys}
}

// projectID validates the :id route parameter at the boundary, before any
// I/O. Writes a 400 and returns "" on a malformed id.
func projectID(c *gin.Context) string {
	id := c.Param("id")
	if err := domain.ValidateProjectID(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid project id"})
		return ""
	}
	return id
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
	case errors.Is(err, domain.ErrInvalidProjectID):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid project id"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.projects.Create(c.Request.Context(), strings.TrimSpace(req.Name), req.Metadata)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid query"})
		return
	}

	projects, total, err := h.projects.List(c.Request.Context(), service.ListOptions{
		Limit:         q.Limit,
		SortBy:        q.SortBy,
		SortDirection: q.SortDirection,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": projects, "total": total})
}

func (h *Handler) get(c *gin.Context) {
	id := projectID(c)
	if id == "" {
		return
	}

	p, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) save(c *gin.Context) {
	id := projectID(c)
	if id == "" {
		return
	}

	var p domain.Project
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	p.ID = id

	if err := h.projects.Save(c.Request.Context(), &p); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) addFiles(c *gin.Context) {
	id := projectID(c)
	if id == "" {
		return
	}

	var req addFilesReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	files := make(map[string][]byte, len(req.Files))
	for path, content := range req.Files {
		files[path] = []byte(content)
	}

	if err := h.projects.AddFiles(c.Request.Context(), id, files); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) listFiles(c *gin.Context) {
	id := projectID(c)
	if id == "" {
		return
	}

	files, err := h.projects.GetFiles(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "files": files})
}

func (h *Handler) deleteFiles(c *gin.Context) {
	id := projectID(c)
	if id == "" {
		return
	}

	var req deleteFilesReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Paths) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	if err := h.projects.DeleteFiles(c.Request.Context(), id, req.Paths); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) requirements(c *gin.Context) {
	id := projectID(c)
	if id == "" {
		return
	}

	entries, err := h.projects.RequirementsHistory(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "requirements": entries})
}

func (h *Handler) addRequirement(c *gin.Context) {
	id := projectID(c)
	if id == "" {
		return
	}

	var req addRequirementReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	if err := h.projects.AddRequirement(c.Request.Context(), id, req.Content); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

func (h *Handler) deployments(c *gin.Context) {
	id := projectID(c)
	if id == "" {
		return
	}

	p, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "deployments": p.Deployments})
}

// syncBatch accepts a full local snapshot and reconciles it against the
// remote view. The response is always an aggregate result; per-project
// failures never produce an all-or-nothing error.
func (h *Handler) syncBatch(c *gin.Context) {
	var local []domain.Project
	if err := c.ShouldBindJSON(&local); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	result, err := h.sync.SyncBidirectional(c.Request.Context(), local)
	if errors.Is(err, syncsvc.ErrSyncInFlight) {
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "sync already in flight"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) deploy(c *gin.Context) {
	id := projectID(c)
	if id == "" {
		return
	}

	var req deployReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	// Tombstoned files never reach the packager.
	files := make(map[string][]byte)
	for _, f := range p.ActiveFiles() {
		files[f.Path] = f.Content
	}

	record, err := h.deploys.DeployWithBestTarget(c.Request.Context(), deploy.DeployRequest{
		ProjectID:   id,
		ProjectName: p.Name,
		Files:       files,
		Target:      domain.Provider(req.Target),
		Credentials: req.Credentials,
	})
	if err != nil {
		record.Status = domain.DeploymentFailed
	}

	// The attempt is history either way.
	if addErr := h.projects.AddDeployment(c.Request.Context(), id, record); addErr != nil {
		h.fail(c, addErr)
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error(), "deployment": record})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "deployment": record})
}

func (h *Handler) targets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"registered": h.deploys.RegisteredTargets(),
		"available":  h.deploys.AvailableTargets(c.Request.Context()),
	})
}

func (h *Handler) artifact(c *gin.Context) {
	id := projectID(c)
	if id == "" {
		return
	}

	data, err := h.projects.GetArtifact(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Content-Length", fmt.Sprintf("%d", len(data)))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="project-%s.zip"`, id))
	c.Data(http.StatusOK, "application/zip", data)
}
