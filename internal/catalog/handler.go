package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/fittrack/internal/apperr"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=catalog_mocks_test.go -package=catalog_test

type exercisesRepo interface {
	SearchBySubstring(ctx context.Context, fragment string, limit int) ([]Exercise, error)
	All(ctx context.Context) ([]Exercise, error)
}

type Handler struct {
	repo exercisesRepo
}

func NewHandler(repo exercisesRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

// HandleSearch serves GET /exercise/search?characters=..[&limit=..]
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercise.search")
	defer span.End()

	fragment := r.URL.Query().Get("characters")
	if fragment == "" {
		apperr.WriteHTTP(w, apperr.Validation("characters query param is required"))
		return
	}

	limit := MaxSearchResults
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil {
			apperr.WriteHTTP(w, apperr.Validation("limit must be a number"))
			return
		}
		limit = l
	}

	exercises, err := h.repo.SearchBySubstring(ctx, fragment, limit)
	if err != nil {
		log.Errorf("search exercises [%s]: %s", fragment, err)
		apperr.WriteHTTP(w, err)
		return
	}

	h.writeExercises(w, exercises)
}

// HandleFetchAll serves GET /exercise/fetchall
func (h *Handler) HandleFetchAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercise.all")
	defer span.End()

	exercises, err := h.repo.All(ctx)
	if err != nil {
		log.Errorf("fetch all exercises: %s", err)
		apperr.WriteHTTP(w, err)
		return
	}

	h.writeExercises(w, exercises)
}

func (h *Handler) writeExercises(w http.ResponseWriter, exercises []Exercise) {
	if exercises == nil {
		exercises = []Exercise{}
	}
	exercisesJson, err := json.Marshal(exercises)
	if err != nil {
		log.Errorf("failed to marshal exercises: %s", err)
		apperr.WriteHTTP(w, err)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, exercisesJson, http.StatusOK)
}
