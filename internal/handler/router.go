package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/stockpile/stockpile-go/internal/middleware"
	"github.com/stockpile/stockpile-go/internal/service"
	"github.com/stockpile/stockpile-go/internal/storage"
)

const requestTimeout = 60 * time.Second

// RouterConfig carries the services and settings NewRouter wires together.
type RouterConfig struct {
	Auth     *service.AuthService
	Products *service.ProductService
	Images   storage.ImageStore

	// Logger receives product change events. Nil means slog.Default().
	Logger *slog.Logger

	JWTSecret      string
	Development    bool
	MaxUploadBytes int64
	CORSOrigins    []string

	// RateLimitRequests per RateLimitWindow applies to every route per client
	// IP. Zero disables the global limit.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter builds the HTTP handler for the whole API.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authHandler := NewAuthHandler(cfg.Auth, cfg.Development)
	productHandler := NewProductHandler(cfg.Products, logger, cfg.MaxUploadBytes, cfg.Development)
	imageHandler := NewImageHandler(cfg.Images, cfg.Development)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))
	if cfg.RateLimitRequests > 0 && cfg.RateLimitWindow > 0 {
		r.Use(middleware.RateLimitWindow(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse("method not allowed"))
	})

	r.Get("/", handleWelcome)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/uploads/{name}", imageHandler.HandleServe)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(5, 10))
			r.Post("/auth/register", authHandler.HandleRegister)
			r.Post("/auth/login", authHandler.HandleLogin)
		})

		r.Route("/products", func(r chi.Router) {
			r.Use(middleware.JWTAuth(cfg.JWTSecret))
			r.Post("/", productHandler.HandleCreate)
			r.Get("/", productHandler.HandleList)
			r.Get("/{id}", productHandler.HandleGet)
			r.Put("/{id}", productHandler.HandleUpdate)
			r.Delete("/{id}", productHandler.HandleDelete)
		})
	})

	return r
}

func handleWelcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to the Stockpile inventory API",
		"version": "1.0.0",
		"endpoints": map[string]any{
			"auth": map[string]string{
				"register": "POST /api/auth/register",
				"login":    "POST /api/auth/login",
			},
			"products": map[string]string{
				"create": "POST /api/products",
				"list":   "GET /api/products",
				"get":    "GET /api/products/{id}",
				"update": "PUT /api/products/{id}",
				"delete": "DELETE /api/products/{id}",
			},
			"images": "GET /uploads/{name}",
		},
	})
}
