package profile

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/fittrack/internal/apperr"
	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=profile_mocks_test.go -package=profile_test

type service interface {
	Get(ctx context.Context, userID int) (*Profile, error)
	Update(ctx context.Context, userID int, params UpdateParams) error
}

type Handler struct {
	service service
}

func NewHandler(service service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.get")
	defer span.End()

	userID, err := h.authorizedUserID(r)
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}

	p, err := h.service.Get(ctx, userID)
	if err != nil {
		log.Errorf("get profile of user %d: %s", userID, err)
		apperr.WriteHTTP(w, err)
		return
	}

	pkg.WriteJSON(w, p, http.StatusOK)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.update")
	defer span.End()

	userID, err := h.authorizedUserID(r)
	if err != nil {
		apperr.WriteHTTP(w, err)
		return
	}

	var params UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("update profile, unmarshal json params: %s", err)
		apperr.WriteHTTP(w, apperr.Validation("invalid profile body"))
		return
	}

	if err := h.service.Update(ctx, userID, params); err != nil {
		log.Errorf("update profile of user %d: %s", userID, err)
		apperr.WriteHTTP(w, err)
		return
	}

	pkg.WriteJSON(w, nil, http.StatusOK)
}

func (h *Handler) authorizedUserID(r *http.Request) (int, error) {
	userID, ok := pkg.ParseID(mux.Vars(r)["user_id"])
	if !ok {
		return 0, apperr.Validation("user_id must be a positive number")
	}
	return auth.RequireUser(r.Context(), userID)
}
