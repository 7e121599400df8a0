package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/payroll-ledger/internal/domain/scope"
	"github.com/cmlabs-hris/payroll-ledger/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-ledger/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

type actorKey struct{}

// AuthRequired rejects requests without a valid access token and stores the
// caller's actor in the request context.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}
		if token == nil {
			response.Unauthorized(w, "Invalid token")
			return
		}

		actor, err := jwt.ActorFromClaims(claims)
		if err != nil {
			response.Unauthorized(w, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor scope.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by AuthRequired.
func ActorFromContext(ctx context.Context) (scope.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(scope.Actor)
	return actor, ok
}
