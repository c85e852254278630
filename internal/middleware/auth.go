package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Ayooluwabami/Blogging-API/internal/auth"
	"github.com/Ayooluwabami/Blogging-API/internal/telemetry/tracing"
	"github.com/Ayooluwabami/Blogging-API/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

const (
	MsgAuthTokenRequired = "Authentication token required"
	MsgInvalidToken      = "Invalid token"
)

type tokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthGate lets a request through only with a valid "Bearer <token>"
// Authorization header, and stores the token claims in the request context.
// No usable header gives 401, a token that fails verification gives 403.
func AuthGate(verifier tokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.Tracef("[missing token] [auth gate] unauthorized => %s", r.URL.Path)
				pkg.WriteMessage(w, MsgAuthTokenRequired, http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				log.Debugf("[invalid token] [auth gate] %s => %s: %s", tokenFailureKind(err), r.URL.Path, err)
				pkg.WriteMessage(w, MsgInvalidToken, http.StatusForbidden)
				span.SetStatus(codes.Error, tokenFailureKind(err))
				span.RecordError(err)
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(ctx, claims)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func tokenFailureKind(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "token-expired"
	case errors.Is(err, auth.ErrTokenInvalidSignature):
		return "token-invalid-signature"
	case errors.Is(err, auth.ErrTokenMalformed):
		return "token-malformed"
	default:
		return "token-verify-failed"
	}
}
