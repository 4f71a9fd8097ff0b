package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/mealshare/mealshare/internal/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func setupRouter(s *Sessions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions(SessionName, cookie.NewStore([]byte("test-secret"))))
	r.Use(s.LoadUser())

	r.POST("/login", func(c *gin.Context) {
		if err := s.Login(c, &models.User{Username: c.Query("user"), IsAdmin: c.Query("admin") == "1"}); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/logout", func(c *gin.Context) {
		s.Logout(c)
		_ = sessions.Default(c).Save()
		c.Status(http.StatusNoContent)
	})

	protected := r.Group("/")
	protected.Use(s.RequireAuth())
	protected.GET("/me", func(c *gin.Context) {
		user := CurrentUser(c)
		if user.IsAdmin {
			c.String(http.StatusOK, user.Username+" (admin)")
			return
		}
		c.String(http.StatusOK, user.Username)
	})
	protected.GET("/token", func(c *gin.Context) {
		c.String(http.StatusOK, s.Token(c))
	})
	protected.GET("/check", func(c *gin.Context) {
		if !s.VerifyToken(c, c.Query("token")) {
			c.Status(http.StatusForbidden)
			return
		}
		c.Status(http.StatusNoContent)
	})
	return r
}

func serve(r http.Handler, method, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_Anonymous(t *testing.T) {
	r := setupRouter(NewSessions(time.Hour))

	w := serve(r, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestLogin_SetsUser(t *testing.T) {
	r := setupRouter(NewSessions(time.Hour))

	login := serve(r, http.MethodPost, "/login?user=alice&admin=1", nil)
	require.Equal(t, http.StatusNoContent, login.Code)
	cookies := login.Result().Cookies()
	require.NotEmpty(t, cookies)

	w := serve(r, http.MethodGet, "/me", cookies)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice (admin)", w.Body.String())
}

func TestSession_AbsoluteExpiry(t *testing.T) {
	clk := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := NewSessions(2 * time.Hour)
	s.now = clk.Now
	r := setupRouter(s)

	cookies := serve(r, http.MethodPost, "/login?user=alice", nil).Result().Cookies()

	clk.now = clk.now.Add(90 * time.Minute)
	w := serve(r, http.MethodGet, "/me", cookies)
	assert.Equal(t, http.StatusOK, w.Code)

	// activity does not extend the session
	clk.now = clk.now.Add(31 * time.Minute)
	w = serve(r, http.MethodGet, "/me", cookies)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestLogout(t *testing.T) {
	r := setupRouter(NewSessions(time.Hour))

	cookies := serve(r, http.MethodPost, "/login?user=alice", nil).Result().Cookies()
	cookies = serve(r, http.MethodGet, "/logout", cookies).Result().Cookies()

	w := serve(r, http.MethodGet, "/me", cookies)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestCurrentUser_NotSet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, CurrentUser(c))
}

func TestToken(t *testing.T) {
	r := setupRouter(NewSessions(time.Hour))

	alice := serve(r, http.MethodPost, "/login?user=alice", nil).Result().Cookies()
	bob := serve(r, http.MethodPost, "/login?user=bob", nil).Result().Cookies()

	token := serve(r, http.MethodGet, "/token", alice).Body.String()
	require.NotEmpty(t, token)
	assert.Equal(t, token, serve(r, http.MethodGet, "/token", alice).Body.String())
	assert.NotEqual(t, token, serve(r, http.MethodGet, "/token", bob).Body.String())

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/check?token="+token, alice).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/check", alice).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/check?token=guess", alice).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/check?token="+token, bob).Code)
}

func TestToken_ChangesOnLogin(t *testing.T) {
	r := setupRouter(NewSessions(time.Hour))

	first := serve(r, http.MethodPost, "/login?user=alice", nil).Result().Cookies()
	old := serve(r, http.MethodGet, "/token", first).Body.String()

	second := serve(r, http.MethodPost, "/login?user=alice", first).Result().Cookies()
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/check?token="+old, second).Code)
}

func TestRequireAdmin(t *testing.T) {
	s := NewSessions(time.Hour)
	r := setupRouter(s)
	r.GET("/admin", s.RequireAuth(), s.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	user := serve(r, http.MethodPost, "/login?user=alice", nil).Result().Cookies()
	w := serve(r, http.MethodGet, "/admin", user)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	admin := serve(r, http.MethodPost, "/login?user=root&admin=1", nil).Result().Cookies()
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/admin", admin).Code)
}
