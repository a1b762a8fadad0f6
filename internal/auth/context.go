package auth

import (
	"context"

	"github.com/2beens/fittrack/internal/apperr"
)

type contextKey string

const userIDKey contextKey = "fittrack-auth-user-id"

// WithUserID stores the authenticated user id on the context.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// CurrentUserID returns the id of the authenticated caller.
func CurrentUserID(ctx context.Context) (int, error) {
	userID, ok := ctx.Value(userIDKey).(int)
	if !ok || userID <= 0 {
		return 0, apperr.Unauthorized("Could not validate user.")
	}
	return userID, nil
}

// RequireUser checks that the caller acts on its own data. claimedUserID of 0 means
// the request did not name a user, and the authenticated one is used.
func RequireUser(ctx context.Context, claimedUserID int) (int, error) {
	userID, err := CurrentUserID(ctx)
	if err != nil {
		return 0, err
	}
	if claimedUserID != 0 && claimedUserID != userID {
		return 0, apperr.Forbidden("Not allowed to access data of user %d.", claimedUserID)
	}
	return userID, nil
}
