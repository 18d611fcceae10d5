package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.public)
	assert.Empty(t, r.shop)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	var scoped []string
	r := NewRouter(engine, WithShopMiddleware(func(c *gin.Context) {
		scoped = append(scoped, c.Param("shop_id"))
		c.Next()
	}))

	r.Register(NewDomainGroup("test", "/test").GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	}))
	r.RegisterShop(NewDomainGroup("day", "/day").GET("", func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("shop_id"))
	}))
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Empty(t, scoped, "public routes skip the shop middleware")

	w = serve(engine, http.MethodGet, "/api/v1/shops/abc/day")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Body.String())
	assert.Equal(t, []string{"abc"}, scoped)
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("drawers", "/drawers")
		assert.Equal(t, "drawers", g.Name())
		assert.Equal(t, "/drawers", g.Prefix())
	})

	t.Run("registers methods", func(t *testing.T) {
		engine := gin.New()
		ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
		NewDomainGroup("test", "/test").
			GET("/items", ok).
			POST("/items", ok).
			PUT("/items/:id", ok).
			Handle(http.MethodDelete, "/items/:id", ok).
			RegisterRoutes(engine.Group("/api/v1"))

		for _, tc := range []struct{ method, path string }{
			{http.MethodGet, "/api/v1/test/items"},
			{http.MethodPost, "/api/v1/test/items"},
			{http.MethodPut, "/api/v1/test/items/1"},
			{http.MethodDelete, "/api/v1/test/items/1"},
		} {
			w := serve(engine, tc.method, tc.path)
			assert.Equal(t, http.StatusOK, w.Code, tc.method)
			assert.Equal(t, tc.method, w.Body.String())
		}
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		NewDomainGroup("test", "/test").
			Use(func(c *gin.Context) {
				c.Header("X-Group", "test")
				c.Next()
			}).
			GET("/items", func(c *gin.Context) { c.Status(http.StatusOK) }).
			RegisterRoutes(engine.Group(""))

		w := serve(engine, http.MethodGet, "/test/items")
		assert.Equal(t, "test", w.Header().Get("X-Group"))
	})
}
