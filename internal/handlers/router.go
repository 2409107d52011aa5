package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/zevar-co/zevargo/internal/config"
	"github.com/zevar-co/zevargo/internal/database"
	"github.com/zevar-co/zevargo/internal/middleware"
	"github.com/zevar-co/zevargo/internal/negotiation"
	"github.com/zevar-co/zevargo/internal/rates"
	ws "github.com/zevar-co/zevargo/internal/websocket"
)

// Router wraps the mux router with the service dependencies
type Router struct {
	*mux.Router
	db        *database.DB
	cfg       *config.Config
	scheduler *rates.Scheduler
	engine    *negotiation.Engine
	hub       *ws.Hub
}

// NewRouter creates the HTTP router with all routes
func NewRouter(db *database.DB, cfg *config.Config, scheduler *rates.Scheduler, engine *negotiation.Engine, hub *ws.Hub) *Router {
	r := &Router{
		Router:    mux.NewRouter(),
		db:        db,
		cfg:       cfg,
		scheduler: scheduler,
		engine:    engine,
		hub:       hub,
	}

	auth := middleware.Auth(cfg.JWTSecret)

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Negotiation channel
	r.HandleFunc("/ws/negotiate", r.serveNegotiation)

	// Auth routes
	authRoutes := r.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/register", r.register).Methods("POST")
	authRoutes.HandleFunc("/login", r.login).Methods("POST")

	// Public catalog + rates
	r.HandleFunc("/api/rates", r.getRates).Methods("GET")
	r.HandleFunc("/api/products", r.listProducts).Methods("GET")
	r.HandleFunc("/api/products/{id:[0-9]+}", r.getProduct).Methods("GET")
	r.HandleFunc("/api/products/{id:[0-9]+}/price", r.getProductPrice).Methods("GET")
	r.HandleFunc("/api/products/{id:[0-9]+}/qr", r.getProductQR).Methods("GET")

	// Orders (authenticated customers)
	orders := r.PathPrefix("/api/orders").Subrouter()
	orders.Use(auth)
	orders.HandleFunc("", r.createOrder).Methods("POST")
	orders.HandleFunc("/{id:[0-9]+}", r.getOrder).Methods("GET")
	orders.HandleFunc("/{id:[0-9]+}/invoice", r.getOrderInvoice).Methods("GET")

	// Admin: rate management and catalog CRUD
	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(auth, middleware.AdminOnly)
	admin.HandleFunc("/rates/override", r.overrideRate).Methods("POST")
	admin.HandleFunc("/rates/sync-config", r.getSyncConfig).Methods("GET")
	admin.HandleFunc("/rates/sync-config", r.setSyncConfig).Methods("POST")
	admin.HandleFunc("/rates/sync", r.syncNow).Methods("POST")
	admin.HandleFunc("/products", r.createProduct).Methods("POST")
	admin.HandleFunc("/products/{id:[0-9]+}", r.updateProduct).Methods("PUT")
	admin.HandleFunc("/products/{id:[0-9]+}", r.deleteProduct).Methods("DELETE")

	return r
}

// serveNegotiation upgrades to the per-session negotiation channel
func (r *Router) serveNegotiation(w http.ResponseWriter, req *http.Request) {
	ws.ServeNegotiation(r.hub, r.engine, w, req)
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":              "ok",
		"active_negotiations": r.hub.ActiveConnections(),
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
