package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Dakudbilla/DevConnect/models"
	"github.com/Dakudbilla/DevConnect/testutil"
	"github.com/Dakudbilla/DevConnect/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func newAuthRouter(tokens *token.JWT) *gin.Engine {
	log := testutil.MakeNoopLogger()
	r := gin.New()
	r.Use(ErrorHandler(log))
	r.GET("/private", Authenticate(tokens, log), func(c *gin.Context) {
		id, ok := UserID(c)
		fromCtx, ctxOK := UserIDFromContext(c.Request.Context())
		if !ok || !ctxOK || id != fromCtx {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id.Hex()})
	})
	return r
}

func TestAuthenticate(t *testing.T) {
	tokens := token.NewJWT("middleware-test-secret", time.Hour)
	other := token.NewJWT("another-secret", time.Hour)
	userID := primitive.NewObjectID()

	valid, err := tokens.Issue(userID.Hex())
	require.NoError(t, err)
	foreign, err := other.Issue(userID.Hex())
	require.NoError(t, err)
	notAnObjectID, err := tokens.Issue("not-an-object-id")
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers map[string]string
		status  int
		message string
	}{
		{name: "x-auth-token", headers: map[string]string{TokenHeader: valid}, status: http.StatusOK},
		{name: "bearer", headers: map[string]string{"Authorization": "Bearer " + valid}, status: http.StatusOK},
		{name: "missing", status: http.StatusUnauthorized, message: "No token, authorization denied"},
		{name: "malformed bearer", headers: map[string]string{"Authorization": valid}, status: http.StatusUnauthorized, message: "No token, authorization denied"},
		{name: "garbage", headers: map[string]string{TokenHeader: "garbage"}, status: http.StatusUnauthorized, message: "Token is not valid"},
		{name: "wrong secret", headers: map[string]string{TokenHeader: foreign}, status: http.StatusUnauthorized, message: "Token is not valid"},
		{name: "bad subject", headers: map[string]string{TokenHeader: notAnObjectID}, status: http.StatusUnauthorized, message: "Token is not valid"},
	}

	r := newAuthRouter(tokens)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			if tt.status == http.StatusOK {
				assert.Equal(t, userID.Hex(), body["id"])
				return
			}
			assert.Equal(t, tt.message, body["error"])
			assert.Equal(t, string(models.KindUnauthenticated), body["code"])
		})
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{name: "validation", err: models.NewValidationError("text is required", map[string]string{"text": "text is required"}), status: http.StatusBadRequest, code: "VALIDATION_ERROR", msg: "text is required"},
		{name: "duplicate", err: models.NewDuplicateUserError(), status: http.StatusBadRequest, code: "DUPLICATE_USER", msg: "User already exists"},
		{name: "already liked", err: models.NewAlreadyLikedError(), status: http.StatusBadRequest, code: "ALREADY_LIKED", msg: "Post already liked"},
		{name: "not liked", err: models.NewNotLikedError(), status: http.StatusBadRequest, code: "NOT_LIKED", msg: "Post has not yet been liked"},
		{name: "credentials", err: models.NewInvalidCredentialsError(), status: http.StatusUnauthorized, code: "INVALID_CREDENTIALS", msg: "Invalid credentials"},
		{name: "forbidden", err: models.NewForbiddenError("User not authorized"), status: http.StatusForbidden, code: "FORBIDDEN", msg: "User not authorized"},
		{name: "not found", err: models.NewNotFoundError("Post"), status: http.StatusNotFound, code: "NOT_FOUND", msg: "Post not found"},
		{name: "storage", err: models.NewStorageError("get post", errors.New("connection reset")), status: http.StatusInternalServerError, code: "INTERNAL_ERROR", msg: "Server error"},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR", msg: "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler(testutil.MakeNoopLogger()))
			r.GET("/", func(c *gin.Context) { c.Error(tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, tt.code, body["code"])
			assert.Equal(t, tt.msg, body["error"])
			assert.NotContains(t, w.Body.String(), "connection reset")
		})
	}
}

func TestErrorHandler_ValidationFields(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(testutil.MakeNoopLogger()))
	r.GET("/", func(c *gin.Context) {
		c.Error(models.NewValidationError("email is required", map[string]string{"email": "email is required"}))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	body := decode(t, w)
	assert.Equal(t, map[string]interface{}{"email": "email is required"}, body["fields"])
}

func TestPanicRecovery(t *testing.T) {
	log := testutil.MakeNoopLogger()
	r := gin.New()
	r.Use(RequestLogger(log), PanicRecovery(log))
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, w)["code"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestLogger_KeepsValidIncomingID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(testutil.MakeNoopLogger()))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestID(c)) })

	const id = "6f1c1f6e-8a5c-4c55-9d2f-0c3b8e0d4a11"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, id, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not a uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not a uuid", w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
}

func TestIPRateLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewIPRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := rl.Allow(ctx, "a")
	assert.False(t, ok)

	ok, _ = rl.Allow(ctx, "b")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute + time.Second)
	ok, _ = rl.Allow(ctx, "a")
	assert.True(t, ok, "window slid past old requests")
}

func TestIPRateLimiter_ForgetsIdleClients(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewIPRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		ok, err := rl.Allow(ctx, ip)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 3, rl.Len())

	now = now.Add(2 * time.Minute)
	ok, err := rl.Allow(ctx, "10.0.0.4")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, rl.Len(), "idle clients are dropped")

	ok, _ = rl.Allow(ctx, "10.0.0.1")
	assert.True(t, ok, "a forgotten client starts with a fresh window")
	assert.Equal(t, 2, rl.Len())
}

func TestRedisLimiter(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	rl := NewRedisLimiter(rdb, 2, time.Minute)
	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "auth:ip:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := rl.Allow(ctx, "auth:ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("rl:auth:ip:1.2.3.4"))

	mr.FastForward(time.Minute + time.Second)
	ok, err = rl.Allow(ctx, "auth:ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	r := gin.New()
	r.POST("/api/auth", RateLimit(NewRedisLimiter(rdb, 1, time.Minute), "auth", testutil.MakeNoopLogger()),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimit_Rejects(t *testing.T) {
	r := gin.New()
	r.POST("/api/auth", RateLimit(NewIPRateLimiter(1, time.Minute), "auth", testutil.MakeNoopLogger()),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", decode(t, w)["code"])
}
