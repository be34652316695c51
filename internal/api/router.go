package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tidebook/booking-backend/internal/agent"
	agentHttp "github.com/tidebook/booking-backend/internal/agent/http"
	"github.com/tidebook/booking-backend/internal/auth"
	"github.com/tidebook/booking-backend/internal/booking"
	bookingHttp "github.com/tidebook/booking-backend/internal/booking/http"
	"github.com/tidebook/booking-backend/internal/catalog"
	catalogHttp "github.com/tidebook/booking-backend/internal/catalog/http"
	"github.com/tidebook/booking-backend/internal/media"
	mediaHttp "github.com/tidebook/booking-backend/internal/media/http"
	"github.com/tidebook/booking-backend/internal/proposal"
	"github.com/tidebook/booking-backend/internal/storefront"
	storefrontHttp "github.com/tidebook/booking-backend/internal/storefront/http"
	"github.com/tidebook/booking-backend/internal/tenant"
	"github.com/tidebook/booking-backend/internal/user"
)

// Config bundles everything the router needs.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	UserService       user.Service
	TenantService     tenant.Service
	CatalogService    catalog.Service
	BookingService    booking.Service
	StorefrontService storefront.Service
	MediaService      media.Service
	ProposalService   proposal.Service
	AgentExecutor     *agent.Executor
	AgentRegistry     *agent.Registry

	JWTManager *auth.JWTManager
}

// NewRouter assembles middleware and registers every module's routes.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	managerMiddleware := RequireManager(cfg.TenantService)

	authHandler := NewAuthHandler(cfg.UserService, cfg.TenantService, cfg.JWTManager)
	catalogHandler := catalogHttp.NewHandler(cfg.CatalogService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	storefrontHandler := storefrontHttp.NewHandler(cfg.StorefrontService)
	mediaHandler := mediaHttp.NewHandler(cfg.MediaService)
	agentHandler := agentHttp.NewHandler(cfg.AgentExecutor, cfg.AgentRegistry, cfg.ProposalService)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/signup", authHandler.Signup)
		v1.POST("/auth/login", authHandler.Login)
		v1.GET("/me", authMiddleware, authHandler.Me)

		staff := v1.Group("/staff", authMiddleware, managerMiddleware)
		{
			staff.GET("", authHandler.ListStaff)
			staff.POST("", authHandler.AddStaff)
		}

		catalogHttp.RegisterRoutes(v1, catalogHandler, authMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware)
		storefrontHttp.RegisterRoutes(v1, storefrontHandler, authMiddleware)
		mediaHttp.RegisterRoutes(v1, mediaHandler, authMiddleware)
		agentHttp.RegisterRoutes(v1, agentHandler, authMiddleware)
	}

	return r
}

func splitOrigins(origins string) []string {
	var out []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
