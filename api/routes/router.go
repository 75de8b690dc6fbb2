package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mesaboardhq/mesaboard-backend/api/controllers"
	"github.com/mesaboardhq/mesaboard-backend/api/middleware"
	"github.com/mesaboardhq/mesaboard-backend/internal/profiles"
	"github.com/mesaboardhq/mesaboard-backend/internal/restaurants"
	"github.com/mesaboardhq/mesaboard-backend/pkg/config"
	"github.com/mesaboardhq/mesaboard-backend/pkg/db"
	"github.com/mesaboardhq/mesaboard-backend/pkg/enums"
	"github.com/mesaboardhq/mesaboard-backend/pkg/logger"
	"github.com/mesaboardhq/mesaboard-backend/pkg/metrics"
	"github.com/mesaboardhq/mesaboard-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	reconciler controllers.SessionReconciler,
	sessionSource middleware.SessionSource,
	sessionMetrics *metrics.SessionMetrics,
	gatherer prometheus.Gatherer,
	profileService profiles.Service,
	restaurantService restaurants.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	signInPolicy := middleware.NewAuthRateLimitPolicy(
		"sign_in",
		cfg.AuthRateLimit.SignInWindow,
		cfg.AuthRateLimit.SignInIPLimit,
		cfg.AuthRateLimit.SignInEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// guard redirect targets
	r.Get(middleware.LoginPath, controllers.LoginLanding())
	r.Get(middleware.UnauthorizedPath, controllers.UnauthorizedLanding())

	r.Route("/api/v1/session", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(signInPolicy, redisClient, logg)).
			Post("/sign-in", controllers.SessionSignIn(reconciler, logg))
		r.Post("/sign-out", controllers.SessionSignOut(reconciler, logg))
		r.Post("/refresh", controllers.SessionRefresh(reconciler, logg))
		r.Get("/", controllers.SessionCurrent(reconciler, logg))
	})

	// any authenticated operator
	r.Group(func(r chi.Router) {
		r.Use(middleware.Guard(sessionSource, sessionMetrics, logg))
		r.Get("/api/v1/me", controllers.Me(logg))
	})

	// kitchen surface: roles match exactly, there is no hierarchy
	r.Route("/api/v1/kitchen", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Guard(sessionSource, sessionMetrics, logg, enums.RoleKitchenOwner, enums.RoleManager))
			r.Get("/restaurant", controllers.KitchenRestaurant(restaurantService, logg))
			r.Get("/staff", controllers.KitchenStaffList(profileService, logg))
			r.Patch("/staff/{profileId}", controllers.KitchenStaffActivation(profileService, logg))
		})

		// registration is owner-only
		r.With(middleware.Guard(sessionSource, sessionMetrics, logg, enums.RoleKitchenOwner)).
			Post("/restaurant", controllers.KitchenRestaurantRegister(restaurantService, logg))
	})

	// platform admin surface
	r.Route("/api/admin/v1/restaurants", func(r chi.Router) {
		r.Use(middleware.Guard(sessionSource, sessionMetrics, logg, enums.RoleSuperAdmin))
		r.Get("/", controllers.AdminRestaurantList(restaurantService, logg))
		r.Get("/pending", controllers.AdminRestaurantPending(restaurantService, logg))
		r.Post("/{restaurantId}/approve", controllers.AdminRestaurantApprove(restaurantService, logg))
		r.Post("/{restaurantId}/suspend", controllers.AdminRestaurantSuspend(restaurantService, logg))
	})

	return r
}
