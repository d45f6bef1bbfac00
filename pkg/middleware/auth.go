package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"f2v2f-service/pkg/errno"
	"f2v2f-service/pkg/restapi"
)

// JWTAuthMiddleware 校验 Bearer token；secret 为空时直接放行
func JWTAuthMiddleware(secret, issuer string) gin.HandlerFunc {
	if secret == "" {
		return func(c *gin.Context) { c.Next() }
	}
	key := []byte(secret)
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		raw := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if raw == "" {
			restapi.Failed(c, errno.ErrUnauthorized)
			return
		}
		claims := &jwt.RegisteredClaims{}
		token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil || !token.Valid {
			if err == nil {
				err = errors.New("invalid token")
			}
			restapi.Failed(c, errno.NewBizError(errno.ErrUnauthorized, err))
			return
		}
		c.Set("subject", claims.Subject)
		c.Next()
	}
}
