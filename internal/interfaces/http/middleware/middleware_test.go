package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/staff"
	"github.com/shoppos/backend/internal/infrastructure/auth"
	"github.com/shoppos/backend/internal/infrastructure/config"
	"github.com/shoppos/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Success)
	return *resp.Error
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Len(t, w.Body.String(), 32)
		assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
	})

	t.Run("inbound kept", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		r.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Body.String())
	})

	t.Run("oversized inbound replaced", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
		r.ServeHTTP(w, req)
		assert.Len(t, w.Body.String(), 32)
	})
}

func TestSecure(t *testing.T) {
	r := gin.New()
	r.Use(Secure())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), BodyLimit(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	info := decodeError(t, w)
	assert.Equal(t, dto.ErrCodeTooLarge, info.Code)
	assert.NotEmpty(t, info.RequestID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("0123")))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCORS(t *testing.T) {
	assert.Nil(t, CORS(CORSConfig{}))

	r := gin.New()
	r.Use(CORS(CORSConfig{
		AllowOrigins: []string{"https://till.example.com"},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://till.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://till.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func newTestJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: time.Hour,
		Issuer:                "test-issuer",
	})
}

func authRouter(svc *auth.JWTService) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	shop := r.Group("/shops/:shop_id", JWTAuth(svc, zap.NewNop()), ShopScope())
	shop.GET("/me", func(c *gin.Context) {
		userID, err := GetUserID(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": userID.String(), "role": GetRole(c), "shop": GetClaims(c).ShopID})
	})
	shop.POST("/float", RequireRole(staff.RoleOwner, staff.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestJWTAuth(t *testing.T) {
	svc := newTestJWT()
	r := authRouter(svc)
	shopID, userID := uuid.New(), uuid.New()
	token, _, err := svc.GenerateToken(auth.TokenInput{ShopID: shopID, UserID: userID, Role: staff.RoleCashier})
	require.NoError(t, err)

	do := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("valid", func(t *testing.T) {
		w := do(http.MethodGet, "/shops/"+shopID.String()+"/me", token)
		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, userID.String(), body["user"])
		assert.Equal(t, "cashier", body["role"])
		assert.Equal(t, shopID.String(), body["shop"])
	})

	t.Run("missing token", func(t *testing.T) {
		w := do(http.MethodGet, "/shops/"+shopID.String()+"/me", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeError(t, w).Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := do(http.MethodGet, "/shops/"+shopID.String()+"/me", "not.a.token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, decodeError(t, w).Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, _, err := svc.GenerateToken(auth.TokenInput{ShopID: shopID, UserID: userID, Role: staff.RoleCashier, TTL: time.Nanosecond})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		w := do(http.MethodGet, "/shops/"+shopID.String()+"/me", expired)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("other shop", func(t *testing.T) {
		w := do(http.MethodGet, "/shops/"+uuid.New().String()+"/me", token)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "FORBIDDEN", decodeError(t, w).Code)
	})

	t.Run("bad shop id", func(t *testing.T) {
		w := do(http.MethodGet, "/shops/nope/me", token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("role required", func(t *testing.T) {
		w := do(http.MethodPost, "/shops/"+shopID.String()+"/float", token)
		assert.Equal(t, http.StatusForbidden, w.Code)

		owner, _, err := svc.GenerateToken(auth.TokenInput{ShopID: shopID, UserID: userID, Role: staff.RoleOwner})
		require.NoError(t, err)
		w = do(http.MethodPost, "/shops/"+shopID.String()+"/float", owner)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
