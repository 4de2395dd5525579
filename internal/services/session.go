package services

import (
	"net/http"
	"strings"

	"jeeforces/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const SessionCookieName = "session_token"

// Identity is the verified caller of a request.
type Identity struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
	Role     string             `json:"role"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == models.RoleAdmin
}

// SessionResolver turns the session cookie or bearer token of a request into an Identity.
// Every call validates the token again; nothing is cached between requests.
type SessionResolver struct {
	tokens *TokenService
}

func NewSessionResolver(tokens *TokenService) *SessionResolver {
	return &SessionResolver{tokens: tokens}
}

func (s *SessionResolver) Resolve(r *http.Request) (*Identity, bool) {
	raw := bearerToken(r)
	if raw == "" {
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			raw = cookie.Value
		}
	}
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}

	claims, err := s.tokens.ValidateToken(raw)
	if err != nil {
		return nil, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, false
	}
	return &Identity{ID: id, Username: claims.Username, Role: claims.Role}, true
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
