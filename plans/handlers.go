package plans

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"tripbite/dates"
	"tripbite/models"
	"tripbite/places"
	"tripbite/utils"
	"tripbite/yelp"
)

const requestTimeout = 20 * time.Second

// Handler exposes the plan service over HTTP.
type Handler struct {
	svc       *Service
	publicURL string
}

func NewHandler(svc *Service, publicURL string) *Handler {
	return &Handler{svc: svc, publicURL: strings.TrimRight(publicURL, "/")}
}

// POST /api/plans
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var cfg PlanConfig
	if err := utils.DecodeJSON(w, r, &cfg); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	cfg.Owner = utils.GetUserIDFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	plan, err := h.svc.CreatePlan(ctx, cfg)
	if err != nil {
		respondWithServiceError(w, "create plan", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, plan)
}

// POST /api/preview
func (h *Handler) PreviewPlan(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var cfg PlanConfig
	if err := utils.DecodeJSON(w, r, &cfg); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	preview, err := h.svc.PreviewPlan(ctx, cfg)
	if err != nil {
		respondWithServiceError(w, "preview plan", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, preview)
}

// GET /api/plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := h.svc.ListPlans(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		respondWithServiceError(w, "list plans", err)
		return
	}
	if list == nil {
		list = []models.Plan{}
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// GET /api/plans/:id
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	ov, err := h.svc.LoadPlanOverview(ctx, ps.ByName("id"))
	if err != nil {
		respondWithServiceError(w, "load plan", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, ov)
}

// DELETE /api/plans/:id
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.svc.DeletePlan(ctx, ps.ByName("id")); err != nil {
		respondWithServiceError(w, "delete plan", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Plan deleted"})
}

type suggestionRequest struct {
	Date string `json:"date"`
	Meal string `json:"meal"`
}

// POST /api/plans/:id/suggestion
func (h *Handler) NewSuggestion(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req suggestionRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Date == "" || req.Meal == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "date and meal are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	biz, err := h.svc.NewSuggestion(ctx, ps.ByName("id"), req.Date, req.Meal)
	if err != nil {
		respondWithServiceError(w, "new suggestion", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, biz)
}

// GET /api/plans/:id/pdf
func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data, err := h.svc.ExportPDF(ctx, id, h.publicURL+"/plans/"+id)
	if err != nil {
		respondWithServiceError(w, "export plan", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=plan-%s.pdf", id))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("write pdf for plan %s: %v", id, err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDayNotFound):
		return http.StatusNotFound
	case errors.Is(err, dates.ErrInvalidRange), errors.Is(err, dates.ErrParse),
		errors.Is(err, models.ErrInvalidPlan), errors.Is(err, ErrUnknownMeal), errors.Is(err, ErrTripTooLong):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNoCandidateAvailable), errors.Is(err, ErrInsufficientCandidates):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrLocationResolution), errors.Is(err, yelp.ErrUpstream), errors.Is(err, places.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func respondWithServiceError(w http.ResponseWriter, op string, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.Printf("[plans] %s: %v", op, err)
		if code == http.StatusInternalServerError {
			utils.RespondWithError(w, code, "Internal server error")
			return
		}
	}
	utils.RespondWithError(w, code, err.Error())
}
