package auth

import (
	"context"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/fittrack/internal/apperr"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=auth_test

type service interface {
	Register(ctx context.Context, params RegisterParams) (int, error)
	Login(ctx context.Context, username, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

type Handler struct {
	service service
}

func NewHandler(service service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.register")
	defer span.End()

	var params RegisterParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("register, unmarshal json params: %s", err)
		apperr.WriteHTTP(w, apperr.Validation("invalid register body"))
		return
	}

	if _, err := h.service.Register(ctx, params); err != nil {
		log.Debugf("register [%s]: %s", params.Username, err)
		apperr.WriteHTTP(w, err)
		return
	}

	pkg.WriteJSON(w, nil, http.StatusCreated)
}

// HandleToken logs in with a form encoded username and password.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.token")
	defer span.End()

	if err := r.ParseForm(); err != nil {
		apperr.WriteHTTP(w, apperr.Validation("invalid login form"))
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		apperr.WriteHTTP(w, apperr.Validation("username and password are required"))
		return
	}

	pair, err := h.service.Login(ctx, username, password)
	if err != nil {
		log.Debugf("login [%s]: %s", username, err)
		apperr.WriteHTTP(w, err)
		return
	}

	pkg.WriteJSON(w, pair, http.StatusOK)
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.refresh")
	defer span.End()

	refreshToken := r.URL.Query().Get("refresh_token")
	if refreshToken == "" {
		apperr.WriteHTTP(w, apperr.Validation("refresh_token is required"))
		return
	}

	pair, err := h.service.Refresh(ctx, refreshToken)
	if err != nil {
		log.Debugf("refresh token: %s", err)
		apperr.WriteHTTP(w, err)
		return
	}

	pkg.WriteJSON(w, pair, http.StatusOK)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.logout")
	defer span.End()

	refreshToken := r.URL.Query().Get("refresh_token")
	if refreshToken == "" {
		apperr.WriteHTTP(w, apperr.Validation("refresh_token is required"))
		return
	}

	if err := h.service.Logout(ctx, refreshToken); err != nil {
		log.Debugf("logout: %s", err)
		apperr.WriteHTTP(w, err)
		return
	}

	pkg.WriteJSON(w, nil, http.StatusOK)
}
