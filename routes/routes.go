package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dakudbilla/DevConnect/handlers"
	"github.com/Dakudbilla/DevConnect/logger"
	"github.com/Dakudbilla/DevConnect/middleware"
)

// Dependencies are the collaborators the router hands to middleware and handlers.
type Dependencies struct {
	Logger         *logger.Logger
	Tokens         middleware.TokenVerifier
	Limiter        middleware.Limiter
	Auth           handlers.AuthService
	Profiles       handlers.ProfileService
	Posts          handlers.PostService
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestLogger(deps.Logger),
		middleware.PanicRecovery(deps.Logger),
		middleware.Metrics(),
		middleware.ErrorHandler(deps.Logger),
	)

	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	}
	router.GET("/health", health)
	router.GET("/api/health", health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(deps.Auth, deps.RequestTimeout)
	profileHandler := handlers.NewProfileHandler(deps.Profiles, deps.RequestTimeout)
	postHandler := handlers.NewPostHandler(deps.Posts, deps.RequestTimeout)

	requireAuth := middleware.Authenticate(deps.Tokens, deps.Logger)

	api := router.Group("/api")

	// Public routes (no auth required)
	api.POST("/users", middleware.RateLimit(deps.Limiter, "register", deps.Logger), authHandler.Register)
	api.POST("/auth", middleware.RateLimit(deps.Limiter, "login", deps.Logger), authHandler.Login)
	api.GET("/auth", requireAuth, authHandler.Me)

	profile := api.Group("/profile")
	profile.GET("", profileHandler.List)
	profile.GET("/user/:user_id", profileHandler.GetByUser)
	profile.GET("/me", requireAuth, profileHandler.GetMine)
	profile.POST("", requireAuth, profileHandler.Upsert)
	profile.DELETE("", requireAuth, profileHandler.DeleteAccount)
	profile.PUT("/experience", requireAuth, profileHandler.AddExperience)
	profile.DELETE("/experience/:exp_id", requireAuth, profileHandler.RemoveExperience)
	profile.PUT("/education", requireAuth, profileHandler.AddEducation)
	profile.DELETE("/education/:edu_id", requireAuth, profileHandler.RemoveEducation)

	post := api.Group("/post")
	post.Use(requireAuth)
	post.POST("", postHandler.Create)
	post.GET("", postHandler.List)
	post.GET("/:id", postHandler.Get)
	post.DELETE("/:id", postHandler.Delete)
	post.PUT("/like/:id", postHandler.Like)
	post.PUT("/unlike/:id", postHandler.Unlike)
	post.POST("/comment/:id", postHandler.AddComment)
	post.DELETE("/comment/:id/:comment_id", postHandler.RemoveComment)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Endpoint not found",
				"code":  "NOT_FOUND",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "code": "NOT_FOUND"})
	})

	return router
}

// corsConfig allows the configured front-end origins. "*" opens the API to any
// origin, which rules out credentialed requests.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", middleware.TokenHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	cfg.AllowOrigins = origins
	return cfg
}
