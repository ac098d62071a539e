package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/openbookings/reservation-backend/internal/auth"
	"github.com/openbookings/reservation-backend/internal/identity"
	"github.com/openbookings/reservation-backend/internal/reservation"
	reservationHttp "github.com/openbookings/reservation-backend/internal/reservation/http"
	"github.com/openbookings/reservation-backend/internal/resource"
	resourceHttp "github.com/openbookings/reservation-backend/internal/resource/http"
	"github.com/openbookings/reservation-backend/internal/user"
	userHttp "github.com/openbookings/reservation-backend/internal/user/http"
)

// Config holds the services and settings the router assembles.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	UserService        user.Service
	ResourceService    resource.Service
	ReservationService reservation.Service
	Provider           identity.Provider
	Verifier           *auth.TokenVerifier
	LogoutRedirectURL  string
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// authMiddleware: Validates if the request contains a valid provider token.
	authMiddleware := auth.AuthRequired(cfg.Verifier)
	// adminMiddleware: Further checks that the token carries the admin role.
	adminMiddleware := auth.RequireAdmin()

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	authHandler := NewAuthHandler(cfg.UserService, cfg.Provider, cfg.LogoutRedirectURL)
	userHandler := userHttp.NewHandler(cfg.UserService)
	resourceHandler := resourceHttp.NewHandler(cfg.ResourceService)
	reservationHandler := reservationHttp.NewHandler(cfg.ReservationService)

	r.GET("/", authMiddleware, authHandler.Home)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		// Browser entry points redirect home; the API grants live on POST.
		v1.GET("/login", func(c *gin.Context) { c.Redirect(302, "/") })
		v1.POST("/login", authHandler.Login)
		v1.GET("/register", func(c *gin.Context) { c.Redirect(302, "/") })
		v1.POST("/register", authHandler.Register)
		v1.GET("/logout", authMiddleware, authHandler.Logout)
		v1.GET("/whoami", authMiddleware, authHandler.WhoAmI)

		userHttp.RegisterRoutes(v1, userHandler, authMiddleware, adminMiddleware)
		resourceHttp.RegisterRoutes(v1, resourceHandler, authMiddleware)
		reservationHttp.RegisterRoutes(v1, reservationHandler, authMiddleware)
	}

	return r
}
