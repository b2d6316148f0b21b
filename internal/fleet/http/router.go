package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fleetyard/fleetyard/internal/fleet/domain"
	"github.com/fleetyard/fleetyard/internal/fleet/service"
	"github.com/fleetyard/fleetyard/internal/fleet/store"
	"github.com/fleetyard/fleetyard/pkg/httpx"
	"github.com/fleetyard/fleetyard/pkg/slogx"

	_ "github.com/fleetyard/fleetyard/api/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store          store.Store
	TokenService   *service.TokenService
	AuthService    *service.AuthService
	ClientService  *service.ClientService
	VehicleService *service.VehicleService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerClients()
	r.registerVehicles()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Fleetyard API
//	@version		0.1.0
//	@description	Vehicle fleet management API with bearer-token authentication.
//	@description
//	@description				Access tokens are HS256-signed JWTs; refresh tokens are opaque values redeemable at /v1/auth/refresh.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /login - strict rate limit by IP (authentication attempts)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(&LoginHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /register - moderate rate limit (public signup endpoint)
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(&RegisterHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /refresh - strict rate limit (token minting)
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(&RefreshHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /logout - moderate rate limit
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(&LogoutHandler{AuthService: r.AuthService},
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerClients() {
	h := &ClientsHandler{ClientService: r.ClientService}
	authn := Authenticate(r.TokenService, r.store)

	// Everything under /v1/clients is admin-only.
	admin := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			authn,
			RequireRole(domain.RoleAdmin),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /v1/clients", admin(h.HandleList))
	r.Mux.Handle("GET /v1/clients/{id}", admin(h.HandleGet))
	r.Mux.Handle("PATCH /v1/clients/{id}", admin(h.HandleUpdate))
	r.Mux.Handle("POST /v1/clients/{id}/deactivate", admin(h.HandleDeactivate))
	r.Mux.Handle("DELETE /v1/clients/{id}", admin(h.HandleDelete))
}

func (r *Router) registerVehicles() {
	h := &VehiclesHandler{VehicleService: r.VehicleService}
	authn := Authenticate(r.TokenService, r.store)

	// Reads require any authenticated client; writes require ADMIN.
	authed := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			authn,
			RequireAuth,
			httpx.RateLimitByIP(httpx.LenientLimit),
		)
	}
	admin := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			authn,
			RequireRole(domain.RoleAdmin),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /v1/vehicles", authed(h.HandleList))
	r.Mux.Handle("GET /v1/vehicles/{id}", authed(h.HandleGet))
	r.Mux.Handle("POST /v1/vehicles", admin(h.HandleCreate))
	r.Mux.Handle("PUT /v1/vehicles/{id}", admin(h.HandleUpdate))
	r.Mux.Handle("DELETE /v1/vehicles/{id}", admin(h.HandleDelete))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
