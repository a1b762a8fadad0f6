package trainings

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/fittrack/internal/apperr"
	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=trainings_mocks_test.go -package=trainings_test

type service interface {
	Create(ctx context.Context, params CreateParams) (int, error)
	FetchSorted(ctx context.Context, params FetchSortedParams) ([]Training, error)
	Search(ctx context.Context, userID int, fragment string) ([]Training, error)
	FetchDetails(ctx context.Context, trainingID, userID int) (*Details, error)
	Delete(ctx context.Context, trainingID, userID int) (int64, error)
	Update(ctx context.Context, trainingID, userID int, incoming []SetItem) (Plan, error)
}

type CreateRequest struct {
	Training struct {
		Name string `json:"training_name"`
		Date Date   `json:"date"`
	} `json:"training"`
	Sets []SetItem `json:"sets"`
}

type CreateResponse struct {
	TrainingID int `json:"training_id"`
}

type Handler struct {
	service service
}

func NewHandler(service service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainings.create")
	defer span.End()

	userID, err := h.userFromQuery(r)
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("create training, unmarshal json params: %s", err)
		apperr.WriteHTTP(w, apperr.Validation("invalid training body: %s", err))
		return
	}

	trainingID, err := h.service.Create(ctx, CreateParams{
		UserID: userID,
		Name:   req.Training.Name,
		Date:   req.Training.Date,
		Sets:   req.Sets,
	})
	if err != nil {
		log.Errorf("create training for user %d: %s", userID, err)
		apperr.WriteHTTP(w, err)
		return
	}

	pkg.WriteJSON(w, CreateResponse{TrainingID: trainingID}, http.StatusCreated)
}

func (h *Handler) HandleFetchSorted(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainings.sorted")
	defer span.End()

	pathUserID, ok := pkg.ParseID(mux.Vars(r)["user_id"])
	if !ok {
		apperr.WriteHTTP(w, apperr.Validation("user_id must be a positive number"))
		return
	}
	userID, err := auth.RequireUser(ctx, pathUserID)
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}

	query := r.URL.Query()
	offset := 0
	if offsetStr := query.Get("offset"); offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil {
			apperr.WriteHTTP(w, apperr.Validation("offset must be a number"))
			return
		}
	}

	trainings, err := h.service.FetchSorted(ctx, FetchSortedParams{
		UserID: userID,
		SortBy: query.Get("sort_by"),
		Order:  query.Get("order"),
		Offset: offset,
	})
	if err != nil {
		log.Errorf("fetch sorted trainings of user %d: %s", userID, err)
		apperr.WriteHTTP(w, err)
		return
	}

	pkg.WriteJSON(w, trainings, http.StatusOK)
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainings.search")
	defer span.End()

	userID, err := h.userFromQuery(r)
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}

	query := r.URL.Query()
	if !query.Has("characters") {
		apperr.WriteHTTP(w, apperr.Validation("characters query param is required"))
		return
	}

	trainings, err := h.service.Search(ctx, userID, query.Get("characters"))
	if err != nil {
		log.Errorf("search trainings of user %d: %s", userID, err)
		apperr.WriteHTTP(w, err)
		return
	}

	pkg.WriteJSON(w, trainings, http.StatusOK)
}

func (h *Handler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainings.details")
	defer span.End()

	trainingID, err := trainingIDFromPath(r)
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	userID, err := auth.CurrentUserID(ctx)
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}

	details, err := h.service.FetchDetails(ctx, trainingID, userID)
	if err != nil {
		log.Debugf("training %d details: %s", trainingID, err)
		apperr.WriteHTTP(w, err)
		return
	}

	pkg.WriteJSON(w, details, http.StatusOK)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainings.delete")
	defer span.End()

	trainingID, err := trainingIDFromPath(r)
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	userID, err := h.userFromQuery(r)
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}

	if _, err := h.service.Delete(ctx, trainingID, userID); err != nil {
		log.Errorf("delete training %d: %s", trainingID, err)
		apperr.WriteHTTP(w, err)
		return
	}

	pkg.WriteJSON(w, nil, http.StatusOK)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.trainings.update")
	defer span.End()

	trainingID, err := trainingIDFromPath(r)
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}
	userID, err := auth.CurrentUserID(ctx)
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}

	var sets []SetItem
	if err := json.NewDecoder(r.Body).Decode(&sets); err != nil {
		log.Tracef("update training, unmarshal json params: %s", err)
		apperr.WriteHTTP(w, apperr.Validation("invalid sets body: %s", err))
		return
	}

	if _, err := h.service.Update(ctx, trainingID, userID, sets); err != nil {
		log.Errorf("update training %d: %s", trainingID, err)
		apperr.WriteHTTP(w, err)
		return
	}

	pkg.WriteJSON(w, nil, http.StatusOK)
}

// userFromQuery reads the optional user_id query param and checks it against the caller.
func (h *Handler) userFromQuery(r *http.Request) (int, error) {
	claimed := 0
	if userIDStr := r.URL.Query().Get("user_id"); userIDStr != "" {
		id, ok := pkg.ParseID(userIDStr)
		if !ok {
			return 0, apperr.Validation("user_id must be a positive number")
		}
		claimed = id
	}
	return auth.RequireUser(r.Context(), claimed)
}

func trainingIDFromPath(r *http.Request) (int, error) {
	trainingID, ok := pkg.ParseID(mux.Vars(r)["training_id"])
	if !ok {
		return 0, apperr.Validation("training_id must be a positive number")
	}
	return trainingID, nil
}
