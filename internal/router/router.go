// Package router assembles the gin engine: middleware, repositories,
// services and the /api routes.
package router

import (
	"net/http"
	"time"

	"github.com/Baaaki/blog-platform/internal/config"
	"github.com/Baaaki/blog-platform/internal/handler"
	"github.com/Baaaki/blog-platform/internal/metrics"
	"github.com/Baaaki/blog-platform/internal/middleware"
	"github.com/Baaaki/blog-platform/internal/repository"
	"github.com/Baaaki/blog-platform/internal/security"
	"github.com/Baaaki/blog-platform/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the process-wide resources the routes run on. Redis is optional.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
}

func New(deps Deps) *gin.Engine {
	cfg := deps.Config

	userRepo := repository.NewUserRepository(deps.DB)
	postRepo := repository.NewPostRepository(deps.DB)
	commentRepo := repository.NewCommentRepository(deps.DB)
	taxonomyRepo := repository.NewTaxonomyRepository(deps.DB)

	tokens := security.NewTokenIssuer(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	authService := service.NewAuthService(userRepo, tokens)
	userService := service.NewUserService(userRepo)
	postService := service.NewPostService(postRepo)
	commentService := service.NewCommentService(commentRepo, postRepo)
	taxonomyService := service.NewTaxonomyService(taxonomyRepo)

	pagination := handler.Pagination{DefaultSize: cfg.DefaultPageSize, MaxSize: cfg.MaxPageSize}

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService, pagination)
	postHandler := handler.NewPostHandler(postService, commentService, pagination)
	commentHandler := handler.NewCommentHandler(commentService, pagination)
	taxonomyHandler := handler.NewTaxonomyHandler(taxonomyService, pagination)

	r := gin.New()
	r.Use(
		middleware.RequestLogger(),
		middleware.Recovery(),
		metrics.Middleware(),
		middleware.SecurityHeadersMiddleware(),
		middleware.HSTSMiddleware(cfg.IsProduction()),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.ErrorHandler(),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	if deps.Redis != nil {
		limiter := middleware.NewRateLimiter(deps.Redis, middleware.RateLimiterConfig{
			MaxRequests: cfg.RateLimitMaxRequests,
			Window:      cfg.RateLimitWindow,
			BlockTime:   cfg.RateLimitBlockTime,
		})
		api.Use(limiter.Middleware())
	}
	api.Use(middleware.AuthMiddleware(authService))

	api.POST("/auth/register", authHandler.Register)
	api.POST("/token", authHandler.Token)
	api.POST("/token/refresh", authHandler.Refresh)

	users := api.Group("/users")
	{
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)
		users.GET("/:id", userHandler.Get)
		users.PUT("/:id", userHandler.Update)
		users.PATCH("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete)
	}

	posts := api.Group("/posts")
	{
		posts.GET("", postHandler.List)
		posts.POST("", postHandler.Create)
		posts.GET("/:id", postHandler.Get)
		posts.PUT("/:id", postHandler.Update)
		posts.PATCH("/:id", postHandler.Update)
		posts.DELETE("/:id", postHandler.Delete)
		posts.GET("/:id/comments", postHandler.ListComments)
		posts.POST("/:id/comments", postHandler.CreateComment)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", taxonomyHandler.ListCategories)
		categories.POST("", taxonomyHandler.CreateCategory)
		categories.GET("/:id", taxonomyHandler.GetCategory)
		categories.PUT("/:id", taxonomyHandler.UpdateCategory)
		categories.PATCH("/:id", taxonomyHandler.UpdateCategory)
		categories.DELETE("/:id", taxonomyHandler.DeleteCategory)
	}

	tags := api.Group("/tags")
	{
		tags.GET("", taxonomyHandler.ListTags)
		tags.POST("", taxonomyHandler.CreateTag)
		tags.GET("/:id", taxonomyHandler.GetTag)
		tags.PUT("/:id", taxonomyHandler.UpdateTag)
		tags.PATCH("/:id", taxonomyHandler.UpdateTag)
		tags.DELETE("/:id", taxonomyHandler.DeleteTag)
	}

	comments := api.Group("/comments")
	{
		comments.GET("", commentHandler.List)
		comments.GET("/:id", commentHandler.Get)
		comments.PUT("/:id", commentHandler.Update)
		comments.PATCH("/:id", commentHandler.Update)
		comments.DELETE("/:id", commentHandler.Delete)
	}

	return r
}
