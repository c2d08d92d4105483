package router

import (
	"net/http"
	"strings"

	"cartsync/internal/handler"
	"cartsync/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(cartHandler *handler.CartHandler, apiKey string, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	cartRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSuffix(r.URL.Path, "/")

		switch {
		case path == "/api/cart":
			cartHandler.Get(w, r)
		case path == "/api/cart/items" && r.Method == http.MethodPost:
			cartHandler.AddItem(w, r)
		case strings.HasPrefix(path, "/api/cart/items/"):
			cartHandler.Item(w, r)
		case path == "/api/cart/coupon":
			cartHandler.Coupon(w, r)
		case path == "/api/cart/pincode":
			cartHandler.Pincode(w, r)
		case path == "/api/cart/location":
			cartHandler.Location(w, r)
		case path == "/api/cart/clear":
			cartHandler.Clear(w, r)
		case path == "/api/cart/sync":
			cartHandler.Sync(w, r)
		case path == "/api/cart/remote":
			cartHandler.Remote(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}

	// Register cart routes (both with and without trailing slash)
	mux.HandleFunc("/api/cart", cartRouteHandler)
	mux.HandleFunc("/api/cart/", cartRouteHandler)

	// Apply middleware in order: Recovery -> CorrelationID -> Logging -> CORS -> APIKeyAuth
	var h http.Handler = mux
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CorrelationID(h)
	h = middleware.Recovery(logger)(h)

	return h
}
