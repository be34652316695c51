package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tidebook/booking-backend/internal/agent"
	"github.com/tidebook/booking-backend/internal/api"
	"github.com/tidebook/booking-backend/internal/auth"
	"github.com/tidebook/booking-backend/internal/booking"
	"github.com/tidebook/booking-backend/internal/catalog"
	"github.com/tidebook/booking-backend/internal/lock"
	"github.com/tidebook/booking-backend/internal/media"
	"github.com/tidebook/booking-backend/internal/pkg/storage"
	"github.com/tidebook/booking-backend/internal/proposal"
	"github.com/tidebook/booking-backend/internal/storefront"
	"github.com/tidebook/booking-backend/internal/tenant"
	"github.com/tidebook/booking-backend/internal/user"
)

// Config holds the dependencies and settings required to start the
// application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int

	LockTimeout time.Duration

	ProposalTTL           time.Duration
	ProposalSweepInterval time.Duration
	SoftConfirmWindow     time.Duration
	SoftConfirmWindows    map[string]time.Duration

	MediaDir string
}

// Container holds the initialized components needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Sweeper    *proposal.Sweeper
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Advisory locks back the booking write path.
	lockManager := lock.NewPgxManager(cfg.DBPool)

	// Tenant module
	tenantRepo := tenant.NewPgxRepository(cfg.DBPool)
	tenantService := tenant.NewService(tenantRepo)

	// User module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher)

	// Catalog module
	catalogRepo := catalog.NewPgxRepository(cfg.DBPool)
	catalogService := catalog.NewService(catalogRepo)

	// Booking module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool, lockManager, cfg.LockTimeout)
	bookingService := booking.NewService(bookingRepo, catalogService)

	// Storefront module
	storefrontRepo := storefront.NewPgxRepository(cfg.DBPool)
	storefrontService := storefront.NewService(storefrontRepo)

	// Media module
	blobStore, err := storage.NewLocalStorage(cfg.MediaDir)
	if err != nil {
		return nil, fmt.Errorf("init media storage: %w", err)
	}
	mediaRepo := media.NewPgxRepository(cfg.DBPool)
	mediaService := media.NewService(mediaRepo, blobStore)

	// Agent proposal module
	proposalStore := proposal.NewPgxStore(cfg.DBPool)
	proposalService := proposal.NewService(proposalStore, proposal.NewClassifier(), proposal.Config{
		TTL:           cfg.ProposalTTL,
		DefaultWindow: cfg.SoftConfirmWindow,
		Windows:       cfg.SoftConfirmWindows,
	})
	registry := agent.NewRegistry()
	executor := agent.NewExecutor(registry, proposalService, catalogService, bookingService, storefrontService)

	router := api.NewRouter(api.Config{
		IsProduction: cfg.IsProduction,
		ProdOrigins:  cfg.ProdOrigins,

		UserService:       userService,
		TenantService:     tenantService,
		CatalogService:    catalogService,
		BookingService:    bookingService,
		StorefrontService: storefrontService,
		MediaService:      mediaService,
		ProposalService:   proposalService,
		AgentExecutor:     executor,
		AgentRegistry:     registry,

		JWTManager: jwtManager,
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Sweeper:    proposal.NewSweeper(proposalService, cfg.ProposalSweepInterval),
	}, nil
}
