package router

import (
	"log"
	"time"

	"savora/config"
	"savora/internal/authz"
	"savora/internal/domain"
	"savora/internal/handler"
	"savora/internal/middleware"
	"savora/internal/repository"
	"savora/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(cfg.Server.RateLimitPerMinute, time.Minute)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	configRepo := repository.NewReferralConfigRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	policyRepo := repository.NewPolicyRepository(db)

	// Authorization policies are loaded once at startup; edits to the
	// policy table take effect on restart.
	policyRows, err := policyRepo.List()
	if err != nil {
		log.Printf("[authz] could not load policies: %v", err)
	}
	policies := authz.NewPolicySet(policyRows)

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	referralSvc := service.NewReferralService(referralRepo, configRepo, userRepo, orderRepo)
	orderSvc := service.NewOrderService(orderRepo, referralSvc)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, referralSvc)
	referralHandler := handler.NewReferralHandler(referralSvc)
	referralAdminHandler := handler.NewReferralAdminHandler(referralSvc)
	orderHandler := handler.NewOrderHandler(orderSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		api.GET("/referrals/code/:code", referralHandler.GetByCode)

		api.POST("/referrals", authMw, referralHandler.Create)
		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/referrals", referralHandler.ListMine)
			me.GET("/referrals/stats", referralHandler.MyStats)
			me.GET("/orders", orderHandler.ListMine)
		}

		api.POST("/orders", authMw, orderHandler.Create)
		api.POST("/orders/:id/complete", authMw,
			middleware.RequirePermission(policies, domain.PermOrderComplete), orderHandler.Complete)

		admin := api.Group("/admin/referrals")
		admin.Use(authMw)
		{
			admin.GET("", middleware.RequirePermission(policies, domain.PermReferralRead), referralAdminHandler.Query)
			admin.GET("/stats/:user_id", middleware.RequirePermission(policies, domain.PermReferralRead), referralAdminHandler.StatsByUser)
			admin.GET("/config", middleware.RequirePermission(policies, domain.PermReferralManageConfig), referralAdminHandler.GetConfig)
			admin.PATCH("/config", middleware.RequirePermission(policies, domain.PermReferralManageConfig), referralAdminHandler.UpdateConfig)
			admin.POST("/expire-sweep", middleware.RequirePermission(policies, domain.PermReferralExpire), referralAdminHandler.ExpireSweep)
		}
	}

	return r
}
