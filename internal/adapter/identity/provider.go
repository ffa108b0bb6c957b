package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ElHadji11/farmconnect-backend/internal/domain"
	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Provider resolves caller identity against the external identity service.
// Session tokens are HMAC-signed JWTs verified locally; profile data is
// fetched over the provider's management API.
type Provider struct {
	apiBaseURL string
	apiKey     string
	signingKey []byte
	httpClient *http.Client
	logger     *logger.Logger
}

func NewProvider(apiBaseURL, apiKey, signingKey string, log *logger.Logger) *Provider {
	return &Provider{
		apiBaseURL: apiBaseURL,
		apiKey:     apiKey,
		signingKey: []byte(signingKey),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     log.Named("IdentityProvider"),
	}
}

type sessionClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// VerifySession validates the session token and returns the external user
// id it was issued for. Any parse or signature failure is ErrUnauthorized.
func (p *Provider) VerifySession(ctx context.Context, tokenString string) (string, error) {
	if tokenString == "" {
		return "", fmt.Errorf("%w: empty session token", domain.ErrUnauthorized)
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.signingKey, nil
	})
	if err != nil || !token.Valid {
		p.logger.Warn("Session token rejected", zap.Error(err))
		return "", fmt.Errorf("%w: invalid session token", domain.ErrUnauthorized)
	}

	externalID := claims.UserID
	if externalID == "" {
		externalID = claims.Subject
	}
	if externalID == "" {
		return "", fmt.Errorf("%w: token carries no user id", domain.ErrUnauthorized)
	}
	return externalID, nil
}

type profileResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	AvatarURL    string `json:"avatar_url"`
	PhoneNumbers []struct {
		Number   string `json:"number"`
		Verified bool   `json:"verified"`
	} `json:"phone_numbers"`
}

// FetchProfile loads the external profile through the management API.
func (p *Provider) FetchProfile(ctx context.Context, externalID string) (*domain.IdentityProfile, error) {
	url := fmt.Sprintf("%s/v1/users/%s", p.apiBaseURL, externalID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Error("Identity API request failed", zap.Error(err), zap.String("external_id", externalID))
		return nil, fmt.Errorf("identity api request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: identity %s", domain.ErrNotFound, externalID)
	case resp.StatusCode != http.StatusOK:
		p.logger.Error("Identity API returned unexpected status", zap.Int("status", resp.StatusCode), zap.String("external_id", externalID))
		return nil, fmt.Errorf("identity api returned status %d", resp.StatusCode)
	}

	var body profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode identity profile: %w", err)
	}

	profile := &domain.IdentityProfile{
		ExternalID: body.ID,
		Email:      body.Email,
		Username:   body.Username,
		FirstName:  body.FirstName,
		LastName:   body.LastName,
		AvatarURL:  body.AvatarURL,
	}
	for _, n := range body.PhoneNumbers {
		profile.PhoneNumbers = append(profile.PhoneNumbers, domain.PhoneNumber{
			Number:   n.Number,
			Verified: n.Verified,
		})
	}
	return profile, nil
}
