package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"restock/api/internal/config"
	"restock/api/internal/limiter"
	"restock/api/internal/middleware"
	"restock/api/internal/models"
	"restock/api/internal/repository"
	"restock/api/internal/service"
)

type HandlerSet struct {
	log       zerolog.Logger
	cfg       *config.AppConfig
	auth      *service.AuthService
	inventory *service.InventoryService
	users     *repository.UserRepository
	db        *pgxpool.Pool
	cache     *redis.Client
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, cfg *config.AppConfig) (HandlerSet, error) {
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	productRepo := repository.NewProductRepository(db)
	requestRepo := repository.NewRequestRepository(db)

	loginLimiter := limiter.NewLoginLimiter(cache, cfg.Limiter)

	auth, err := service.NewAuthService(userRepo, tokenRepo, loginLimiter, cfg.Security, log)
	if err != nil {
		return HandlerSet{}, err
	}
	inventory := service.NewInventoryService(productRepo, requestRepo, log)

	return HandlerSet{
		log:       log,
		cfg:       cfg,
		auth:      auth,
		inventory: inventory,
		users:     userRepo,
		db:        db,
		cache:     cache,
	}, nil
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)

		protected := v1.Group("/auth")
		protected.Use(middleware.Auth(h.auth))
		protected.GET("/me", h.Me)
		protected.PUT("/password", h.ChangePassword)
	}

	users := v1.Group("/users")
	users.Use(
		middleware.Auth(h.auth),
		middleware.RequireRoles(models.UserRoleManager),
	)
	users.GET("", h.ListUsers)
	users.GET("/:id", h.GetUser)
	users.DELETE("/:id", h.DeleteUser)

	products := v1.Group("/products")
	products.Use(middleware.Auth(h.auth))
	products.GET("", h.ListProducts)
	products.GET("/:id", h.GetProduct)

	productWrites := v1.Group("/products")
	productWrites.Use(
		middleware.Auth(h.auth),
		middleware.RequireRoles(models.UserRoleOperator, models.UserRoleManager),
	)
	productWrites.POST("", h.CreateProduct)
	productWrites.PUT("/:id", h.UpdateProduct)
	productWrites.DELETE("/:id", h.DeleteProduct)

	requests := v1.Group("/requests")
	requests.Use(middleware.Auth(h.auth))
	requests.POST("", h.CreateRequest)
	requests.GET("", h.ListRequests)
	requests.GET("/:id", h.GetRequest)

	requestReviews := v1.Group("/requests")
	requestReviews.Use(
		middleware.Auth(h.auth),
		middleware.RequireRoles(models.UserRoleManager),
	)
	requestReviews.PATCH("/:id/status", h.SetRequestStatus)
	requestReviews.DELETE("/:id", h.DeleteRequest)
}
