package bootstrap

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/pom-bolt/pombolt-backend/config"
	httpapi "github.com/pom-bolt/pombolt-backend/internal/api/http"
	"github.com/pom-bolt/pombolt-backend/internal/auth"
	"github.com/pom-bolt/pombolt-backend/internal/deploy"
	projecthttp "github.com/pom-bolt/pombolt-backend/internal/projects/http"
	"github.com/pom-bolt/pombolt-backend/internal/projects/repository"
	"github.com/pom-bolt/pombolt-backend/internal/projects/service"
	"github.com/pom-bolt/pombolt-backend/internal/storage"
	syncsvc "github.com/pom-bolt/pombolt-backend/internal/sync"
)

type RouterDeps struct {
	ServiceName string
	Cfg         *config.Config
	Store       *storage.Fallback
}

// BuildRouter wires repositories, services, and handlers onto a gin engine.
// Every component gets its dependencies here, once, at process start.
func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins: dep.Cfg.Server.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Cfg.App.Version, dep.Store)
	healthHandler.RegisterRoutes(r)

	repo := repository.NewProjectRepository(dep.Store)
	projects := service.NewProjectService(repo)
	sync := syncsvc.NewService(projects)

	registry := deploy.NewRegistry()
	registry.Register(deploy.NewCloudflareTarget(deploy.Credentials{
		AccountID: dep.Cfg.Deploy.CloudflareAccountID,
		APIToken:  dep.Cfg.Deploy.CloudflareAPIToken,
	}, ""))
	registry.Register(deploy.NewNetlifyTarget(deploy.Credentials{
		APIToken: dep.Cfg.Deploy.NetlifyAPIToken,
	}, ""))
	registry.Register(deploy.NewS3Target(
		dep.Cfg.Deploy.S3Bucket,
		dep.Cfg.Deploy.S3Region,
		dep.Cfg.Deploy.S3AccessKeyID,
		dep.Cfg.Deploy.S3SecretAccessKey,
	))

	resolver := deploy.DefaultResolver(dep.Cfg.Deploy)
	deploys := deploy.NewManager(registry, resolver, projects)

	api := r.Group("/api/v1")

	if dep.Cfg.Firebase.CredentialsPath != "" {
		authClient, err := auth.InitializeFirebase(&dep.Cfg.Firebase)
		if err != nil {
			log.Printf("[warn] operation=bootstrap message=firebase init failed, API runs unauthenticated error=%v", err)
		} else {
			api.Use(auth.FirebaseAuthMiddleware(authClient))
		}
	}

	handler := projecthttp.NewHandler(projects, sync, deploys)
	handler.Register(api)

	return r
}
