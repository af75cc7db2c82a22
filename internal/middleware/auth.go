package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bamskydbest/pharm-back/internal/apierror"
	"github.com/bamskydbest/pharm-back/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	PrincipalKey = "principal"
)

// JWTClaims are the claims issued by the identity service. Tokens are only
// verified here, never issued, except by the development token tool.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	BranchID string `json:"branch_id"`
	jwt.RegisteredClaims
}

// JWTAuth validates the Bearer token on every protected route and stores the
// resulting model.Principal in the context. An empty secret rejects every
// request: HMAC accepts a zero-length key, so such tokens would be forgeable.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Authentication is not configured"))
			return
		}
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Authentication required"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Invalid or expired token"))
			return
		}

		principal, ok := claims.principal()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token is missing user, role or branch"))
			return
		}

		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

func (cl *JWTClaims) principal() (model.Principal, bool) {
	userID, err := uuid.Parse(cl.UserID)
	if err != nil {
		return model.Principal{}, false
	}
	branchID, err := uuid.Parse(cl.BranchID)
	if err != nil {
		return model.Principal{}, false
	}
	if !model.ValidRole(cl.Role) {
		return model.Principal{}, false
	}
	return model.Principal{ID: userID, Name: cl.Name, Role: cl.Role, BranchID: branchID}, true
}

// RequireRole rejects requests whose principal role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok || !allowed[p.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Insufficient permissions"))
			return
		}
		c.Next()
	}
}

// GetPrincipal is a helper to retrieve the authenticated principal.
func GetPrincipal(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}

// ErrEmptySecret is returned by SignToken when no signing secret is configured.
var ErrEmptySecret = errors.New("jwt secret is empty")

// SignToken issues an HS256 token for p. Used by cmd/devtoken and tests.
func SignToken(secret string, p model.Principal, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	now := time.Now()
	claims := JWTClaims{
		UserID:   p.ID.String(),
		Name:     p.Name,
		Role:     p.Role,
		BranchID: p.BranchID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
