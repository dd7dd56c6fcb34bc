package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"blogd/config"
	"blogd/controllers"
	"blogd/middleware"
	"blogd/social"
	"blogd/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, cfg config.AppConfig, tokens *utils.TokenManager) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	logger := utils.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.Recovery(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	graph := social.NewGraph(db)
	authController := controllers.NewAuthController(db, tokens)
	postController := controllers.NewPostController(db, graph)
	socialController := controllers.NewSocialController(db, graph)
	adminController := controllers.NewAdminController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/me", middleware.RequireAuth(db, tokens), authController.Me)

	// Read paths personalize output when a valid token is present but never
	// require one.
	api.GET("/posts", middleware.OptionalAuth(db, tokens), postController.ListPosts)
	api.GET("/posts/:id", middleware.OptionalAuth(db, tokens), postController.GetPost)
	api.GET("/users/:id/followers", socialController.ListFollowers)
	api.GET("/users/:id/following", socialController.ListFollowing)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(db, tokens))
	protected.POST("/posts", postController.CreatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.POST("/posts/:id/comments", postController.CreateComment)
	protected.DELETE("/comments/:id", postController.DeleteComment)
	protected.POST("/posts/:id/like", socialController.LikePost)
	protected.POST("/posts/:id/unlike", socialController.UnlikePost)
	protected.POST("/posts/:id/save", socialController.SavePost)
	protected.POST("/posts/:id/unsave", socialController.UnsavePost)
	protected.POST("/users/:id/follow", socialController.FollowUser)
	protected.POST("/users/:id/unfollow", socialController.UnfollowUser)
	protected.GET("/users/me/saved", socialController.ListSaved)

	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin(db, tokens))
	admin.GET("/users", adminController.ListUsers)
	admin.DELETE("/users/:id", adminController.DeleteUser)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
