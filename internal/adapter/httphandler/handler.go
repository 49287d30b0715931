package httphandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/metrics"
)

// GET  /api/reviews                          (200 OK, 500)
// GET  /api/products?page=&page_size=        (200 OK, 500)
// POST /api/order JSON {phone, cart}         (200 OK, 415, 500)
// GET  /api/health                           (200 OK, 503)
// GET  /api/home                             (200 OK)
// GET  /api/products/{id}/demand             (200 OK, 400, 404, 503)

const maxOrderBody = 1 << 20

const (
	msgReviewsFailed  = "Failed to fetch reviews"
	msgProductsFailed = "Failed to fetch products"
	msgOrderFailed    = "Failed to create order"
	msgInvalidID      = "Invalid product id"
	msgDemandNotFound = "Product demand not found"
	msgDemandDisabled = "Product demand unavailable"
)

// API is the storefront service as seen by the HTTP layer.
type API interface {
	port.ReviewsProvider
	port.ProductsProvider
	port.OrderPlacer
	port.HomeLoader
	port.HealthChecker
	port.DemandProvider
}

type APIHandler struct {
	api API
}

// RegisterAPI mounts the proxy routes. Metrics may be nil.
func RegisterAPI(mux *http.ServeMux, api API, m *metrics.ServerMetrics) {
	h := APIHandler{api}

	routes := []struct {
		pattern string
		name    string
		handler http.Handler
	}{
		{"GET /api/reviews", "reviews", http.HandlerFunc(h.GetReviews)},
		{"GET /api/products", "products", http.HandlerFunc(h.GetProducts)},
		{"POST /api/order", "order", AllowJSON(http.HandlerFunc(h.PostOrder))},
		{"GET /api/health", "health", http.HandlerFunc(h.GetHealth)},
		{"GET /api/home", "home", http.HandlerFunc(h.GetHome)},
		{"GET /api/products/{id}/demand", "demand", http.HandlerFunc(h.GetDemand)},
	}

	for _, r := range routes {
		handler := r.handler
		if m != nil {
			handler = m.Wrap(r.name, handler)
		}
		mux.Handle(r.pattern, handler)
	}
}

func (h APIHandler) GetReviews(w http.ResponseWriter, r *http.Request) {
	const op = "APIHandler.GetReviews"
	log := slog.With("op", op)

	data, err := h.api.Reviews(r.Context())
	if err != nil {
		log.Error("failed to fetch reviews", "err", err)
		writeError(w, http.StatusInternalServerError, msgReviewsFailed)
		return
	}
	writeRaw(w, http.StatusOK, data)
}

func (h APIHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	const op = "APIHandler.GetProducts"
	log := slog.With("op", op)

	q := r.URL.Query()
	data, err := h.api.Products(r.Context(), q.Get("page"), q.Get("page_size"))
	if err != nil {
		log.Error("failed to fetch products", "err", err)
		writeError(w, http.StatusInternalServerError, msgProductsFailed)
		return
	}
	writeRaw(w, http.StatusOK, data)
}

func (h APIHandler) PostOrder(w http.ResponseWriter, r *http.Request) {
	const op = "APIHandler.PostOrder"
	log := slog.With("op", op)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxOrderBody))
	if err != nil {
		log.Warn("failed to read body", "err", err)
		writeError(w, http.StatusInternalServerError, msgOrderFailed)
		return
	}

	data, err := h.api.PlaceOrder(r.Context(), body)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidJSON) {
			log.Warn("failed to parse JSON", "err", err)
		} else {
			log.Error("failed to create order", "err", err)
		}
		writeError(w, http.StatusInternalServerError, msgOrderFailed)
		return
	}

	writeRaw(w, http.StatusOK, data)
	log.Info("order forwarded")
}

func (h APIHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	if !h.api.Healthy(r.Context()) {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h APIHandler) GetHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.api.Home(r.Context()))
}

func (h APIHandler) GetDemand(w http.ResponseWriter, r *http.Request) {
	const op = "APIHandler.GetDemand"
	log := slog.With("op", op)

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, msgInvalidID)
		return
	}

	d, err := h.api.Demand(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, msgDemandNotFound)
	case err != nil:
		log.Warn("demand lookup failed", "id", id, "err", err)
		writeError(w, http.StatusServiceUnavailable, msgDemandDisabled)
	default:
		writeJSON(w, http.StatusOK, d)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", "op", "httphandler.writeJSON", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, data)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write response body", "op", "httphandler.writeRaw", "err", err)
	}
}
