package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/YashVG/techprep-sub000/internal/middleware"
	"github.com/YashVG/techprep-sub000/internal/service"
	"github.com/YashVG/techprep-sub000/pkg/config"
	"github.com/YashVG/techprep-sub000/pkg/logger"
	corsmiddleware "github.com/YashVG/techprep-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/YashVG/techprep-sub000/pkg/middleware/requestid"
	"github.com/YashVG/techprep-sub000/pkg/ratelimit"
)

// Rate limit groups.
const (
	LimitGroupDefault  = "default"
	LimitGroupRegister = "register"
	LimitGroupLogin    = "login"
	LimitGroupPassword = "password"
)

// RouterDeps carries everything the HTTP surface is built from.
type RouterDeps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Version  string
	DB       Pinger
	Limiter  *ratelimit.Limiter
	Metrics  *service.MetricsService
	Security service.SecurityRecorder

	Auth     *service.AuthService
	Users    *service.UserService
	Courses  *service.CourseService
	Posts    *service.PostService
	Comments *service.CommentService
	Groups   *service.GroupService
}

// NewRouter assembles the gin engine with global middleware and all routes.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	// With no trusted proxies ClientIP ignores X-Forwarded-For and X-Real-IP.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Warn("invalid trusted proxies, trusting none", zap.Strings("trusted_proxies", cfg.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(middleware.Recovery(log))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(middleware.SecurityHeaders(cfg.TLSEnabled))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.OptionalJWT(deps.Auth, deps.Security))
	r.Use(middleware.ForbiddenAudit(deps.Security))

	ops := NewMetricsHandler(deps.Metrics, deps.DB, "studyblog-api", deps.Version)
	r.GET("/", ops.Banner)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)
	if !cfg.IsProduction() {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	limits := middleware.NewRateLimiter(deps.Limiter, deps.Security, deps.Metrics, log, cfg.RateLimit.Enabled)
	requireAuth := middleware.RequireAuth(deps.Security)

	api := r.Group("/")
	api.Use(limits.Limit(LimitGroupDefault, rule(cfg.RateLimit.Default)))

	authHandler := NewAuthHandler(deps.Auth)
	auth := api.Group("/auth")
	auth.POST("/register", limits.Limit(LimitGroupRegister, rule(cfg.RateLimit.Register)), authHandler.Register)
	auth.POST("/login", limits.Limit(LimitGroupLogin, rule(cfg.RateLimit.Login)), authHandler.Login)
	auth.POST("/logout", requireAuth, authHandler.Logout)
	auth.GET("/profile", requireAuth, authHandler.Profile)
	auth.PUT("/profile", requireAuth, authHandler.UpdateProfile)
	auth.POST("/change-password", requireAuth, limits.Limit(LimitGroupPassword, rule(cfg.RateLimit.Password)), authHandler.ChangePassword)

	postHandler := NewPostHandler(deps.Posts, deps.Comments)
	api.GET("/posts", postHandler.List)
	api.POST("/posts", requireAuth, postHandler.Create)
	api.GET("/posts/:id", postHandler.Get)
	api.DELETE("/posts/:id", requireAuth, postHandler.Delete)
	api.GET("/posts/:id/comments", postHandler.Comments)
	api.POST("/comments", requireAuth, postHandler.CreateComment)

	courseHandler := NewCourseHandler(deps.Courses)
	api.GET("/courses", courseHandler.List)
	api.POST("/courses", requireAuth, courseHandler.Create)
	api.DELETE("/courses/:id", requireAuth, courseHandler.Delete)

	userHandler := NewUserHandler(deps.Users)
	api.GET("/users/:id", userHandler.Get)
	api.GET("/users/:id/posts", requireAuth, userHandler.Posts)
	api.GET("/users/:id/groups", userHandler.Groups)

	groupHandler := NewGroupHandler(deps.Groups)
	api.GET("/groups", groupHandler.List)
	api.POST("/groups", requireAuth, groupHandler.Create)
	api.GET("/groups/:id", groupHandler.Get)
	api.PUT("/groups/:id", requireAuth, groupHandler.Update)
	api.DELETE("/groups/:id", requireAuth, groupHandler.Delete)
	api.POST("/groups/:id/members", requireAuth, groupHandler.AddMember)
	api.DELETE("/groups/:id/members/:userID", requireAuth, groupHandler.RemoveMember)
	api.GET("/groups/:id/posts", requireAuth, groupHandler.Posts)

	return r
}

func rule(r config.Rule) ratelimit.Rule {
	return ratelimit.Rule{Limit: r.Limit, Window: r.Window}
}
