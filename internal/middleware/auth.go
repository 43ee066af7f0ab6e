package middleware

import (
	"net/http"
	"strings"

	"novaadm/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ClaimsKey = "claims"
)

// JWTClaims are the custom claims embedded in every access token. EmpresaID
// scopes every query the request makes.
type JWTClaims struct {
	UserID    string `json:"user_id"`
	EmpresaID string `json:"empresa_id"`
	Username  string `json:"username"`
	Rol       string `json:"rol"`
	jwt.RegisteredClaims
}

// JWTAuth validates the Bearer token on every protected route.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.From(apierror.ErrNoAutorizado.Con("autenticacion requerida")))
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
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.From(apierror.ErrNoAutorizado.Con("token invalido o expirado")))
			return
		}
		if _, err := uuid.Parse(claims.EmpresaID); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.From(apierror.ErrNoAutorizado.Con("token sin empresa")))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects requests whose JWT role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims, ok := c.MustGet(ClaimsKey).(*JWTClaims)
		if !ok || !allowed[claims.Rol] {
			c.AbortWithStatusJSON(http.StatusForbidden, &apierror.APIError{Code: "PROHIBIDO", Detail: "permisos insuficientes"})
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	claims, _ := c.MustGet(ClaimsKey).(*JWTClaims)
	return claims
}

// EmpresaID returns the company of the authenticated user. JWTAuth already
// rejected tokens whose empresa_id does not parse.
func EmpresaID(c *gin.Context) uuid.UUID {
	id, _ := uuid.Parse(GetClaims(c).EmpresaID)
	return id
}

// UsuarioID returns the authenticated user, or uuid.Nil for a malformed claim.
func UsuarioID(c *gin.Context) uuid.UUID {
	id, _ := uuid.Parse(GetClaims(c).UserID)
	return id
}
