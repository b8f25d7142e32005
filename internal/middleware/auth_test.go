package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/todomore/pkg/httpcontext"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func run(cfg AuthConfig, authorization string) (*fasthttp.RequestCtx, string) {
	var seen string
	h := JWTAuth(cfg, nil)(func(ctx *fasthttp.RequestCtx) {
		seen = httpcontext.UserID(ctx)
		ctx.SetStatusCode(fasthttp.StatusOK)
	})

	ctx := &fasthttp.RequestCtx{}
	if authorization != "" {
		ctx.Request.Header.Set("Authorization", authorization)
	}
	h(ctx)
	return ctx, seen
}

func TestJWTAuthAcceptsSubject(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
		"sub": "user-1",
		"aud": "authenticated",
		"iss": "https://idp.example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	ctx, user := run(AuthConfig{Secret: secret, Issuer: "https://idp.example.com", Audience: "authenticated"}, "Bearer "+token)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "user-1", user)
	assert.Equal(t, "user-1", string(ctx.Request.Header.Peek("X-User-ID")))
}

func TestJWTAuthFallsBackToUserIDClaim(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": "legacy", "exp": time.Now().Add(time.Hour).Unix()})
	_, user := run(AuthConfig{Secret: secret}, "bearer "+token)
	assert.Equal(t, "legacy", user)
}

func TestJWTAuthRejects(t *testing.T) {
	valid := jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(time.Hour).Unix()}

	cases := map[string]struct {
		cfg   AuthConfig
		token string
	}{
		"missing header": {cfg: AuthConfig{Secret: secret}},
		"wrong secret": {
			cfg:   AuthConfig{Secret: secret},
			token: sign(t, jwt.SigningMethodHS256, []byte("other"), valid),
		},
		"expired": {
			cfg:   AuthConfig{Secret: secret},
			token: sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix()}),
		},
		"wrong audience": {
			cfg:   AuthConfig{Secret: secret, Audience: "authenticated"},
			token: sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u1", "aud": "anon", "exp": time.Now().Add(time.Hour).Unix()}),
		},
		"wrong issuer": {
			cfg:   AuthConfig{Secret: secret, Issuer: "https://idp.example.com"},
			token: sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u1", "iss": "https://evil.example.com", "exp": time.Now().Add(time.Hour).Unix()}),
		},
		"no expiry": {
			cfg:   AuthConfig{Secret: secret},
			token: sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u1"}),
		},
		"no subject": {
			cfg:   AuthConfig{Secret: secret},
			token: sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}),
		},
		"unsigned": {
			cfg:   AuthConfig{Secret: secret},
			token: sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid),
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			header := ""
			if tc.token != "" {
				header = "Bearer " + tc.token
			}
			ctx, user := run(tc.cfg, header)
			assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
			assert.Empty(t, user)
			assert.Contains(t, string(ctx.Response.Body()), "UNAUTHORIZED")
		})
	}
}

func TestRecoveryReturns500(t *testing.T) {
	h := Recovery(nil)(func(*fasthttp.RequestCtx) { panic("boom") })
	ctx := &fasthttp.RequestCtx{}
	assert.NotPanics(t, func() { h(ctx) })
	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
}
