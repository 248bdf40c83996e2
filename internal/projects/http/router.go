package http

import "github.com/gin-gonic/gin"

// Register attaches project, sync, and deployment routes to the given router
// group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	projects := rg.Group("/projects")
	projects.POST("", h.create)
	projects.GET("", h.list)
	projects.GET("/:id", h.get)
	projects.PUT("/:id", h.save)
	projects.POST("/:id/files", h.addFiles)
	projects.GET("/:id/files", h.listFiles)
	projects.DELETE("/:id/files", h.deleteFiles)
	projects.GET("/:id/requirements", h.requirements)
	projects.POST("/:id/requirements", h.addRequirement)
	projects.GET("/:id/deployments", h.deployments)
	projects.POST("/:id/deploy", h.deploy)
	projects.GET("/:id/artifact", h.artifact)

	rg.POST("/sync", h.syncBatch)
	rg.GET("/deploy/targets", h.targets)
}
