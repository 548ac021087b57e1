package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/stock-ledger/core/user"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

const (
	CtxKeyLimit  CtxKey = "limit"
	CtxKeyOffset CtxKey = "offset"
	CtxKeyUser   CtxKey = "user"
)

func Paginate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limitStr := r.URL.Query().Get("limit")
		offsetStr := r.URL.Query().Get("offset")

		var err error
		limit := DefaultPageLimit
		if limitStr != "" {
			limit, err = strconv.Atoi(limitStr)
			if err != nil || limit <= 0 {
				limit = DefaultPageLimit
			}
		}
		if limit > MaxPageLimit {
			limit = MaxPageLimit
		}

		offset := 0
		if offsetStr != "" {
			offset, err = strconv.Atoi(offsetStr)
			if err != nil || offset < 0 {
				offset = 0
			}
		}

		log.Debug().Int("limit", limit).Int("offset", offset).Send()
		ctx := context.WithValue(r.Context(), CtxKeyLimit, limit)
		ctx = context.WithValue(ctx, CtxKeyOffset, offset)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func page(r *http.Request) (limit, offset int) {
	limit, ok := r.Context().Value(CtxKeyLimit).(int)
	if !ok {
		limit = DefaultPageLimit
	}
	offset, _ = r.Context().Value(CtxKeyOffset).(int)
	return limit, offset
}

type UserAccess interface {
	Login(ctx context.Context, username, password string) (user.User, error)
}

func Authenticate(ua UserAccess) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()

			if !ok {
				authErr(w)
				return
			}

			u, err := ua.Login(r.Context(), username, password)
			if err != nil {
				if errors.Is(err, user.ErrBadCredentials) {
					authErr(w)
					return
				}
				log.Error().Err(err).Str("username", username).Msg("failed to authenticate")
				Render(w, r, ErrInternalServer)
				return
			}

			ctx := context.WithValue(r.Context(), CtxKeyUser, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		usr, ok := r.Context().Value(CtxKeyUser).(user.User)

		if !ok || !usr.IsAdmin {
			authErr(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Actor is the name audit entries record for the request. The authenticated user wins over anything the
// client claims in its body.
func Actor(r *http.Request, claimed string) string {
	if usr, ok := r.Context().Value(CtxKeyUser).(user.User); ok && usr.Username != "" {
		return usr.Username
	}
	if claimed != "" {
		return claimed
	}
	return "anonymous"
}

func authErr(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
