package middleware

import (
	"context"
	"net/http"

	"github.com/2beens/formcheck/internal/telemetry/tracing"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

const (
	SessionTokenHeader = "X-FORMCHECK-TOKEN"
	sessionIDVar       = "id"
)

type tokenChecker interface {
	Verify(ctx context.Context, sessionID, token string) (bool, error)
}

type AuthMiddlewareHandler struct {
	tokenChecker    tokenChecker
	protectedRoutes map[string]bool
}

// NewAuthMiddlewareHandler guards the named routes with the per-session token.
// The session id is taken from the {id} route variable.
func NewAuthMiddlewareHandler(
	tokenChecker tokenChecker,
	protectedRoutes ...string,
) *AuthMiddlewareHandler {
	protected := make(map[string]bool, len(protectedRoutes))
	for _, name := range protectedRoutes {
		protected[name] = true
	}
	return &AuthMiddlewareHandler{
		tokenChecker:    tokenChecker,
		protectedRoutes: protected,
	}
}

func (h *AuthMiddlewareHandler) isProtected(r *http.Request) bool {
	route := mux.CurrentRoute(r)
	if route == nil {
		return false
	}
	return h.protectedRoutes[route.GetName()]
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if !h.isProtected(r) {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			sessionID := mux.Vars(r)[sessionIDVar]
			authToken := r.Header.Get(SessionTokenHeader)
			if authToken == "" || sessionID == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "missing session token", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			valid, err := h.tokenChecker.Verify(ctx, sessionID, authToken)
			if err != nil {
				log.Errorf("[failed token check] => %s: %s", r.URL.Path, err)
				http.Error(w, "session token check failed", http.StatusServiceUnavailable)
				span.SetStatus(codes.Error, "token-check-err")
				span.RecordError(err)
				return
			}
			if !valid {
				log.Tracef("[invalid token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "invalid session token", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-token")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
