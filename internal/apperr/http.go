package apperr

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type Response struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// WriteHTTP writes err as a JSON error body with the status mapped from its kind.
// Server side failures are logged and their details are not leaked to the client.
func WriteHTTP(w http.ResponseWriter, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = &Error{
			Kind:    KindUnknown,
			Message: "An unexpected error occurred.",
			Cause:   err,
		}
	}

	resp := Response{
		Kind:   appErr.Kind.String(),
		Detail: appErr.Message,
	}
	if appErr.Kind.IsServerSide() {
		log.Errorf("request failed [%s]: %s", appErr.Kind, err)
		if appErr.Kind == KindUnknown {
			resp.Detail = "An unexpected error occurred."
		}
	} else {
		log.Debugf("request rejected [%s]: %s", appErr.Kind, err)
	}

	respJson, mErr := json.Marshal(resp)
	if mErr != nil {
		log.Errorf("marshal error response: %s", mErr)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Kind.HTTPStatus())
	if _, wErr := w.Write(respJson); wErr != nil {
		log.Errorf("failed to write error response: %s", wErr)
	}
}
