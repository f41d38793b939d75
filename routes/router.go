package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Winter-Krimmert/Advanced-Blog-API/auth"
	"github.com/Winter-Krimmert/Advanced-Blog-API/config"
	"github.com/Winter-Krimmert/Advanced-Blog-API/controllers"
	"github.com/Winter-Krimmert/Advanced-Blog-API/events"
	"github.com/Winter-Krimmert/Advanced-Blog-API/middleware"
	"github.com/Winter-Krimmert/Advanced-Blog-API/utils"
)

// Dependencies are the shared services the router hands to controllers.
// Cache and Events fall back to in-process implementations when nil.
type Dependencies struct {
	Config config.AppConfig
	DB     *gorm.DB
	Logger *zap.Logger
	Cache  utils.Cache
	Events events.Publisher
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cache := deps.Cache
	if cache == nil {
		cache = utils.NewMemoryCache()
	}
	pub := deps.Events
	if pub == nil {
		pub = events.NopPublisher{}
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Ginzap(log))
	r.Use(middleware.RecoveryWithZap(log))
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	codec := auth.NewTokenCodec([]byte(cfg.SecretKey), cfg.TokenTTL())
	users := auth.NewGormUserStore(deps.DB)
	verifier := auth.NewCredentialVerifier(users)

	authController := controllers.NewAuthController(deps.DB, codec, verifier, pub, log)
	userController := controllers.NewUserController(deps.DB, cache, pub, log)
	postController := controllers.NewPostController(deps.DB, cache, pub, log)
	commentController := controllers.NewCommentController(deps.DB, cache, pub, log)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	authRequired := middleware.AuthRequired(codec, users)

	credentials := r.Group("")
	credentials.Use(limiter.Middleware())
	credentials.POST("/register", authController.Register)
	credentials.POST("/token", authController.Token)
	credentials.POST("/login", authController.Token)
	credentials.POST("/users", userController.Create)

	cached := middleware.CacheResponse(cache, cfg.CacheTTL(), controllers.PostsCachePrefix)
	r.GET("/posts", cached, postController.ListPosts)
	r.GET("/posts/:id", cached, postController.GetPost)
	r.GET("/posts/:id/comments", cached, postController.ListComments)
	r.GET("/comments", commentController.ListComments)
	r.GET("/comments/:id", commentController.GetComment)

	protected := r.Group("")
	protected.Use(authRequired)
	protected.GET("/me", authController.Me)

	protected.GET("/users", userController.List)
	protected.GET("/users/:id", userController.Get)
	protected.PUT("/users/:id", userController.Update)
	protected.DELETE("/users/:id", userController.Delete)

	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)

	protected.POST("/comments", commentController.CreateComment)
	protected.PUT("/comments/:id", commentController.UpdateComment)
	protected.DELETE("/comments/:id", commentController.DeleteComment)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, utils.NotFound("route"))
	})

	return r
}

func corsConfig(origins []string) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", middleware.HeaderRequestID, middleware.HeaderCache},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}
	return corsCfg
}
