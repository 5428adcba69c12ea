/*Package backend implements the SISGEMEC HTTP surface.

Every endpoint is a thin proxy: it takes the caller's bearer token, builds a
Supabase client scoped to that token, issues a single identity or data
request and reshapes the answer. All authorization decisions are made
upstream by GoTrue and by PostgREST row-level security.
*/
package backend

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sisgemec/sisgemec/core/access"
	"github.com/sisgemec/sisgemec/core/logger"
	"github.com/sisgemec/sisgemec/core/supabase"
)

// Backend is the SISGEMEC proxy backend.
type Backend struct {
	supabase supabase.Client
	router   *mux.Router
}

// Builder is a builder helper for the Backend
type Builder struct {
	// Supabase is the base client for the project, authenticated with the
	// anonymous API key. This is mandatory.
	Supabase supabase.Client
	// Router is a mux router. This is mandatory.
	Router *mux.Router
}

// New realizes the actual backend and adds all routes to the router.
func New(bb *Builder) *Backend {
	if bb.Router == nil {
		panic("router is missing")
	}

	b := &Backend{
		supabase: bb.Supabase,
		router:   bb.Router,
	}

	logger.AddRequestID(b.router)
	b.handleCORS()
	b.handleCompression()
	b.handleRoutes()
	return b
}

func (b *Backend) handleRoutes() {
	rlog := logger.Default()
	rlog.Debugln("backend: handle routes")

	requireBearer := access.RequireBearer()
	router := b.router

	// OPTIONS is listed everywhere so preflight requests reach the CORS
	// middleware; it answers them before any handler runs.
	router.HandleFunc("/health", b.health).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/auth/login", b.login).Methods(http.MethodPost, http.MethodOptions)
	router.Handle("/auth/logout", requireBearer(http.HandlerFunc(b.logout))).Methods(http.MethodPost, http.MethodOptions)
	router.Handle("/auth/session", requireBearer(http.HandlerFunc(b.session))).Methods(http.MethodGet, http.MethodOptions)
	router.Handle("/auth/refresh", requireBearer(http.HandlerFunc(b.refresh))).Methods(http.MethodPost, http.MethodOptions)
	router.Handle("/me", requireBearer(http.HandlerFunc(b.me))).Methods(http.MethodGet, http.MethodOptions)
	router.Handle("/equipos", requireBearer(http.HandlerFunc(b.listEquipos))).Methods(http.MethodGet, http.MethodOptions)
	router.Handle("/equipos", requireBearer(http.HandlerFunc(b.createEquipo))).Methods(http.MethodPost)
	router.Handle("/servicios", requireBearer(http.HandlerFunc(b.listServicios))).Methods(http.MethodGet, http.MethodOptions)
	router.Handle("/servicios", requireBearer(http.HandlerFunc(b.createServicio))).Methods(http.MethodPost)
}

// scopedClient returns a fresh data-access client bound to the caller's
// token. One client per request, never reused.
func (b *Backend) scopedClient(r *http.Request) supabase.Client {
	return b.supabase.WithToken(access.TokenFromContext(r.Context()))
}

func (b *Backend) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
