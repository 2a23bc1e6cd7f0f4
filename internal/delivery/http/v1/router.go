package v1

import (
	"time"

	"heather-backend/config"
	"heather-backend/internal/delivery/http/middleware"
	"heather-backend/internal/domain"
	"heather-backend/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	ProfileUC   domain.ProfileUsecase
	MessagingUC domain.MessagingUsecase
	AnalysisUC  domain.AnalysisUsecase
	ChatUC      domain.ChatUsecase
	HealthUC    usecase.HealthUsecase
	Verifier    middleware.TokenVerifier
	RateLimiter *middleware.RateLimiter
	Config      *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	window := time.Duration(deps.Config.RateLimitWindowSeconds) * time.Second

	r.Use(middleware.RequestID())
	r.Use(middleware.CORSMiddleware(deps.Config.FrontendURL, deps.Config.IsProduction()))
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(deps.RateLimiter.Middleware(middleware.IPRateLimitConfig(deps.Config.RateLimitGlobalThreshold, window)))
	r.Use(middleware.ErrorHandler())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")

	NewHealthHandler(v1, deps.HealthUC)

	if !deps.Config.IsProduction() {
		v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Verifier))
	{
		NewProfileHandler(protected, deps.ProfileUC)
		NewMessagingHandler(protected, deps.MessagingUC)
		// Model calls are slow and billed; keep a tighter per-user ceiling on top of the daily quota.
		NewAnalysisHandler(protected, deps.AnalysisUC,
			deps.RateLimiter.Middleware(middleware.UserRateLimitConfig("rl:analysis:", 5, time.Minute)))
		NewChatHandler(protected, deps.ChatUC,
			deps.RateLimiter.Middleware(middleware.UserRateLimitConfig("rl:chat:", 20, time.Minute)))
	}

	return r
}
