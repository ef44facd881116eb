/**
 * @description
 * This file contains custom middleware for the HTTP router. Middlewares are used
 * to process requests before they reach the final handler, perfect for tasks like
 * authentication, logging, or adding context to a request.
 *
 * @dependencies
 * - context, net/http, strings: Standard Go libraries.
 * - github.com/golang-jwt/jwt/v5: JWT parsing and validation.
 */

package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// MerchantIDContextKey is a custom type for the context key to avoid collisions.
type MerchantIDContextKey string

const merchantIDKey MerchantIDContextKey = "merchantID"

// MerchantAuthMiddleware creates a middleware that validates HS256 merchant
// tokens. The token's subject claim identifies the merchant every record is
// scoped to.
func MerchantAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			merchantID, err := token.Claims.GetSubject()
			if err != nil || merchantID == "" {
				http.Error(w, "Token has no subject claim", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), merchantIDKey, merchantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetMerchantID retrieves the authenticated merchant id from the context.
func GetMerchantID(ctx context.Context) (string, bool) {
	merchantID, ok := ctx.Value(merchantIDKey).(string)
	return merchantID, ok
}
