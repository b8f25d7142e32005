package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todomore/api/transport"
	"github.com/fastygo/todomore/domain"
	"github.com/fastygo/todomore/pkg/httpcontext"
)

// AuthConfig describes the tokens accepted from the identity provider.
// Empty Issuer or Audience disables the corresponding check.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

var (
	errMissingSubject = errors.New("token has no subject")
	errMissingExpiry  = errors.New("token has no expiry")
)

// JWTAuth verifies HMAC-signed bearer tokens and exposes the subject as the request's user id.
func JWTAuth(cfg AuthConfig, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	secret := []byte(cfg.Secret)
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, "missing bearer token")
				return
			}

			userID, err := verify(tokenString, secret, cfg)
			if err != nil {
				logger.Warn("invalid jwt token",
					zap.String("request_id", httpcontext.RequestID(ctx)),
					zap.Error(err))
				unauthorized(ctx, "invalid token")
				return
			}

			httpcontext.SetUserID(ctx, userID)
			ctx.Request.Header.Set("X-User-ID", userID)
			next(ctx)
		}
	}
}

func verify(tokenString string, secret []byte, cfg AuthConfig) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("token is not valid")
	}
	// Parsing only checks exp when present; provider tokens must carry one.
	if _, ok := claims["exp"]; !ok {
		return "", errMissingExpiry
	}
	if cfg.Issuer != "" && !claims.VerifyIssuer(cfg.Issuer, true) {
		return "", errors.New("unexpected issuer")
	}
	if cfg.Audience != "" && !claims.VerifyAudience(cfg.Audience, true) {
		return "", errors.New("unexpected audience")
	}

	for _, key := range []string{"sub", "user_id"} {
		if userID, ok := claims[key].(string); ok && userID != "" {
			return userID, nil
		}
	}
	return "", errMissingSubject
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	writeError(ctx, fasthttp.StatusUnauthorized, string(domain.ErrCodeUnauthorized), message)
}

func writeError(ctx *fasthttp.RequestCtx, status int, code, message string) {
	body, _ := json.Marshal(transport.NewError(code, message, nil))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
