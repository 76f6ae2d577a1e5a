package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/speechflow/backend/internal/errors"
	"github.com/speechflow/backend/internal/service"
	"github.com/speechflow/backend/pkg/response"
)

// CatalogHandler serves the public challenge catalog.
type CatalogHandler struct {
	log            zerolog.Logger
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(log zerolog.Logger, catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		log:            log,
		catalogService: catalogService,
	}
}

// Categories handles GET /api/v1/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.Categories(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, categories)
}

// Levels handles GET /api/v1/levels
func (h *CatalogHandler) Levels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.catalogService.Levels(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, levels)
}

// Challenges handles GET /api/v1/challenges?category=&level=
func (h *CatalogHandler) Challenges(w http.ResponseWriter, r *http.Request) {
	challenges, err := h.catalogService.Challenges(
		r.Context(),
		r.URL.Query().Get("category"),
		r.URL.Query().Get("level"),
	)
	if err != nil {
		h.handleError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, challenges)
}

// Challenge handles GET /api/v1/challenges/{id}
func (h *CatalogHandler) Challenge(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.NotFound(w, "challenge not found")
		return
	}

	challenge, err := h.catalogService.Challenge(r.Context(), id)
	if err != nil {
		h.handleError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, challenge)
}

func (h *CatalogHandler) handleError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		response.Error(w, appErr.HTTPStatus(), appErr)
		return
	}
	h.log.Error().Err(err).Msg("Internal server error")
	response.InternalError(w, "internal server error")
}
