package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"agrolink/internal/auth"
	"agrolink/internal/config"
	"agrolink/internal/repository"
	"agrolink/internal/service"
)

// Services зависимости HTTP-слоя
type Services struct {
	Users     *service.UserService
	Products  *service.ProductService
	Locations *service.LocationService
	Orders    *service.OrderService
	Payments  *service.PaymentService
	Ratings   *service.RatingService
}

type Server struct {
	engine *gin.Engine
	env    string
	tokens *auth.TokenManager
	svc    Services
}

func NewServer(cfg *config.Config, tokens *auth.TokenManager, svc Services) *Server {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// CORS: фронт из конфига плюс локальная разработка
	origins := []string{"http://localhost:5173"}
	if cfg.FrontOrigin != "" {
		origins = append(origins, cfg.FrontOrigin)
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s := &Server{engine: r, env: cfg.Env, tokens: tokens, svc: svc}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := s.engine.Group("/api")
	{
		api.GET("/health", s.health)

		authGroup := api.Group("/auth")
		authGroup.POST("/register", s.register)
		authGroup.POST("/login", s.login)
		authGroup.POST("/recover", s.recoverPassword)

		me := api.Group("/me", s.requireAuth())
		me.GET("", s.getMe)
		me.PUT("", s.updateMe)

		location := api.Group("/location", s.requireAuth())
		location.GET("/my", s.getMyLocation)
		location.PUT("/my", s.upsertMyLocation)
		location.DELETE("/my", s.deleteMyLocation)

		products := api.Group("/products")
		products.GET("", s.listProducts)
		products.GET("/categories", s.listCategories)
		products.GET("/mine", s.requireAuth(roleProducer), s.myProducts)
		products.GET("/:id", s.getProduct)
		products.POST("", s.requireAuth(roleProducer), s.createProduct)
		products.PUT("/:id", s.requireAuth(roleProducer), s.updateProduct)
		products.DELETE("/:id", s.requireAuth(roleProducer), s.deleteProduct)

		orders := api.Group("/orders")
		orders.POST("", s.requireAuth(roleConsumer), s.createOrder)
		orders.GET("/my", s.requireAuth(), s.myOrders)
		orders.GET("/:id", s.requireAuth(), s.getOrder)
		orders.PUT("/:id/ship", s.requireAuth(roleProducer), s.shipOrder)
		orders.PUT("/:id/deliver", s.requireAuth(roleProducer), s.deliverOrder)
		orders.PUT("/:id/cancel", s.requireAuth(), s.cancelOrder)

		payments := api.Group("/payments")
		payments.POST("", s.requireAuth(roleConsumer), s.createPayment)
		payments.GET("/:orderId", s.requireAuth(), s.listPayments)

		ratings := api.Group("/ratings")
		ratings.POST("", s.requireAuth(roleConsumer), s.createRating)
		ratings.GET("/producer/:producerId", s.producerRatingSummary)
	}
}

// health
// @Summary Healthcheck
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Router /health [get]
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":   true,
		"env":  s.env,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

func mapErrorToStatus(err error) int {
	var ve *service.ValidationError
	var ae *service.AuthError
	var fe *service.ForbiddenError
	var nf *service.NotFoundError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ae):
		return http.StatusUnauthorized
	case errors.As(err, &fe):
		return http.StatusForbidden
	case errors.As(err, &nf), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
}

func bearerToken(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
