package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ElHadji11/farmconnect-backend/internal/domain"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"go.uber.org/zap"
)

// Authenticator verifies bearer session tokens and stores the resolved
// external id on the request context. Handlers behind it can assume a
// caller identity exists.
type Authenticator struct {
	identity domain.IdentityProvider
	logger   *logger.Logger
}

func NewAuthenticator(identity domain.IdentityProvider, log *logger.Logger) *Authenticator {
	return &Authenticator{
		identity: identity,
		logger:   log.Named("AuthMiddleware"),
	}
}

func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			a.unauthorized(w, "missing bearer token")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		externalID, err := a.identity.VerifySession(r.Context(), token)
		if err != nil {
			a.logger.Debug("Session verification failed", zap.Error(err))
			a.unauthorized(w, "invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), ExternalIDKey, externalID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
