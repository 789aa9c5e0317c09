package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is one of the caller roles spec.md §6 requires the core to record.
type Role string

const (
	RoleCustomer       Role = "customer"
	RoleSalesEngineer  Role = "sales_engineer"
	RoleProductManager Role = "product_manager"
	RoleAdmin          Role = "admin"
)

// Claims carries the resolved (caller_id, role, brand_scope) the core consumes per
// spec.md §6 ("Auth at the boundary"). The API key itself is an HMAC-signed JWT
// carrying these claims, so the adapter never needs a separate lookup store.
type Claims struct {
	CallerID   string   `json:"caller_id"`
	Role       Role     `json:"role"`
	BrandScope []string `json:"brand_scope"`
	jwt.RegisteredClaims
}

// CallerContext is the resolved identity the core records into audit entries.
type CallerContext struct {
	CallerID   string
	Role       Role
	BrandScope []string
}

// AllowsBrand reports whether the caller's scope covers the given brand; an empty
// scope means unrestricted, mirroring the Registry's empty-family_scope convention.
func (c CallerContext) AllowsBrand(brandCode string) bool {
	if len(c.BrandScope) == 0 {
		return true
	}
	for _, b := range c.BrandScope {
		if b == brandCode {
			return true
		}
	}
	return false
}

// APIKeyValidator validates and issues the opaque API keys callers present at the
// HTTP boundary. Generalized from the teacher's JWKS-fetched JWTValidator
// (auth/jwt.go) down to a single HMAC secret, since this spec has no external
// identity provider — the core only needs to resolve (caller_id, role, brand_scope).
type APIKeyValidator struct {
	secret []byte
	ttl    time.Duration
}

// NewAPIKeyValidator creates a new API key validator/issuer.
func NewAPIKeyValidator(secret string, ttlSeconds int) *APIKeyValidator {
	return &APIKeyValidator{
		secret: []byte(secret),
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}
}

// IssueKey mints an opaque API key for the given caller. A ttlSeconds of 0 on the
// validator means the key never expires (suitable for long-lived service keys).
func (v *APIKeyValidator) IssueKey(callerID string, role Role, brandScope []string) (string, error) {
	now := time.Now()
	claims := Claims{
		CallerID:   callerID,
		Role:       role,
		BrandScope: brandScope,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if v.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(v.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// ValidateKey parses and validates an API key string, returning the resolved claims.
func (v *APIKeyValidator) ValidateKey(keyString string) (*Claims, error) {
	keyString = strings.TrimPrefix(keyString, "Bearer ")
	if keyString == "" {
		return nil, errors.New("missing API key")
	}

	token, err := jwt.ParseWithClaims(keyString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse API key: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid API key claims")
	}
	if claims.CallerID == "" {
		return nil, errors.New("API key missing caller_id")
	}
	if !isValidRole(claims.Role) {
		return nil, fmt.Errorf("API key carries unknown role: %s", claims.Role)
	}

	return claims, nil
}

// ExtractCallerContext reduces validated claims to the CallerContext the core
// records into audit entries, mirroring the teacher's ExtractUserContext.
func (v *APIKeyValidator) ExtractCallerContext(claims *Claims) CallerContext {
	return CallerContext{
		CallerID:   claims.CallerID,
		Role:       claims.Role,
		BrandScope: claims.BrandScope,
	}
}

func isValidRole(r Role) bool {
	switch r {
	case RoleCustomer, RoleSalesEngineer, RoleProductManager, RoleAdmin:
		return true
	}
	return false
}
