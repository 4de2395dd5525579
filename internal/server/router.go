package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jeeforces/configs"
	"jeeforces/internal/handlers"
	"jeeforces/internal/middlewares"
	"jeeforces/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps are the services the HTTP layer is built from.
type Deps struct {
	Config         *configs.Config
	Sessions       *services.SessionResolver
	Auth           *services.AuthService
	Users          *services.UserService
	Problems       *services.ProblemService
	Contests       *services.ContestService
	Discussions    *services.DiscussionService
	Reports        *services.ReportService
	Ratings        *services.RatingService
	GeneralLimiter *services.FixedWindowLimiter
	AgentLimiter   *services.FixedWindowLimiter
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config

	router := gin.New()
	router.Use(middlewares.Recovery())
	router.Use(middlewares.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middlewares.SessionMiddleware(d.Sessions))
	router.Use(middlewares.RouteGuard())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	generalLimit := middlewares.RateLimit(d.GeneralLimiter)
	agentLimit := middlewares.RateLimit(d.AgentLimiter)

	api := router.Group("/api")
	admin := api.Group("/admin", middlewares.RequireAdmin())

	handlers.NewAuthHandler(d.Auth, handlers.CookieConfig{
		TTLSeconds: int(cfg.SessionTTL.Seconds()),
		Secure:     cfg.CookieSecure,
	}, cfg.VerifyRedirectURL).RegisterRoutes(api, generalLimit)
	handlers.NewUserHandler(d.Users).RegisterRoutes(api)
	handlers.NewProblemHandler(d.Problems).RegisterRoutes(api)
	handlers.NewSubmissionHandler(d.Problems).RegisterRoutes(api)
	handlers.NewContestHandler(d.Contests).RegisterRoutes(api)
	handlers.NewDiscussionHandler(d.Discussions).RegisterRoutes(api)
	handlers.NewReportHandler(d.Reports).RegisterRoutes(api, admin, generalLimit)
	handlers.NewRatingHandler(d.Ratings).RegisterRoutes(admin)
	handlers.NewAgentHandler(d.Problems).RegisterRoutes(api, agentLimit)
	handlers.NewSEOHandler(cfg.BaseURL).RegisterRoutes(router)

	router.NoRoute(staticHandler(cfg.StaticDir))
	return router
}

// staticHandler serves the built front end from dir, falling back to index.html for
// client-side routes. Unknown API paths get a JSON 404.
func staticHandler(dir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if dir == "" || strings.HasPrefix(path, "/api/") || c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}

		file := filepath.Join(dir, filepath.Clean("/"+path))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	}
}
