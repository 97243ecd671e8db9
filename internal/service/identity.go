package service

import (
	"fmt"
	"strings"

	"github.com/GoPolymarket/oplog/internal/oplog"
	"github.com/golang-jwt/jwt/v5"
)

// JWTIdentityResolver reads the current user from the claims of a JWT. The
// signature is not checked here; authentication happens before the endpoint.
type JWTIdentityResolver struct {
	parser *jwt.Parser
}

func NewJWTIdentityResolver() *JWTIdentityResolver {
	return &JWTIdentityResolver{parser: jwt.NewParser()}
}

// Resolve returns nil for a blank token. A token that cannot be decoded yields
// an error wrapping oplog.ErrTokenDecode.
func (r *JWTIdentityResolver) Resolve(token string) (*oplog.Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := r.parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", oplog.ErrTokenDecode, err)
	}

	identity := &oplog.Identity{
		UserID:   claimString(claims, "userId"),
		Username: claimString(claims, "username"),
	}
	if identity.UserID == "" {
		identity.UserID = claimString(claims, "sub")
	}
	if identity.Username == "" {
		identity.Username = claimString(claims, "sub")
	}
	if identity.UserID == "" && identity.Username == "" {
		return nil, nil
	}
	return identity, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
