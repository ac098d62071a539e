package app

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openbookings/reservation-backend/internal/api"
	"github.com/openbookings/reservation-backend/internal/auth"
	"github.com/openbookings/reservation-backend/internal/identity"
	"github.com/openbookings/reservation-backend/internal/reservation"
	"github.com/openbookings/reservation-backend/internal/resource"
	"github.com/openbookings/reservation-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	DBPool            *pgxpool.Pool
	Identity          identity.Config
	TokenSecret       string
	LogoutRedirectURL string
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router   *gin.Engine
	Verifier *auth.TokenVerifier
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Init Components
	verifier := auth.NewTokenVerifier(cfg.TokenSecret)
	provider := identity.NewClient(cfg.Identity)

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, provider)

	// Resource Module
	resourceRepo := resource.NewPgxRepository(cfg.DBPool)
	resourceService := resource.NewService(resourceRepo, userService)

	// Reservation Module
	reservationRepo := reservation.NewPgxRepository(cfg.DBPool)
	reservationService := reservation.NewService(reservationRepo, userService)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:       cfg.IsProduction,
		ProdOrigins:        cfg.ProdOrigins,
		UserService:        userService,
		ResourceService:    resourceService,
		ReservationService: reservationService,
		Provider:           provider,
		Verifier:           verifier,
		LogoutRedirectURL:  cfg.LogoutRedirectURL,
	})

	return &Container{
		Router:   router,
		Verifier: verifier,
	}
}
