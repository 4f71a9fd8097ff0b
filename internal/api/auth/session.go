package auth

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mealshare/mealshare/internal/api/models"
)

// SessionName is the name of the session cookie.
const SessionName = "mealshare_session"

// UserKey is the gin context key holding the *models.User of the request.
const UserKey = "user"

const (
	sessionUsername = "username"
	sessionIsAdmin  = "is_admin"
	sessionLoginAt  = "login_at"
	sessionToken    = "action_token"
)

// Sessions binds users to cookie sessions. A session expires a fixed time
// after login regardless of activity.
type Sessions struct {
	maxAge time.Duration
	now    func() time.Time
}

// NewSessions returns a Sessions whose logins expire after maxAge.
func NewSessions(maxAge time.Duration) *Sessions {
	return &Sessions{maxAge: maxAge, now: time.Now}
}

// Login binds the session of the request to user and saves it.
func (s *Sessions) Login(c *gin.Context, user *models.User) error {
	session := sessions.Default(c)
	session.Set(sessionUsername, user.Username)
	session.Set(sessionIsAdmin, user.IsAdmin)
	session.Set(sessionLoginAt, s.now().Unix())
	session.Set(sessionToken, uuid.NewString())
	c.Set(UserKey, user)
	return session.Save()
}

// Logout removes the user from the session. Flashes added afterwards survive
// until the session is saved.
func (s *Sessions) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(sessionUsername)
	session.Delete(sessionIsAdmin)
	session.Delete(sessionLoginAt)
	session.Delete(sessionToken)
	c.Set(UserKey, (*models.User)(nil))
}

// Token returns the action token of the logged in user. Links that change
// state through GET carry it so other sites cannot trigger them. Sessions
// created before tokens existed get one on first use.
func (s *Sessions) Token(c *gin.Context) string {
	if CurrentUser(c) == nil {
		return ""
	}
	session := sessions.Default(c)
	if token, ok := session.Get(sessionToken).(string); ok && token != "" {
		return token
	}
	token := uuid.NewString()
	session.Set(sessionToken, token)
	if err := session.Save(); err != nil {
		log.Error("Failed to save session", "error", err)
	}
	return token
}

// VerifyToken reports whether token is the action token of the logged in user.
func (s *Sessions) VerifyToken(c *gin.Context, token string) bool {
	if token == "" || CurrentUser(c) == nil {
		return false
	}
	want, _ := sessions.Default(c).Get(sessionToken).(string)
	return want != "" && subtle.ConstantTimeCompare([]byte(want), []byte(token)) == 1
}

// user reads the user from the session. Expired logins are removed from the
// session and reported as absent.
func (s *Sessions) user(c *gin.Context) *models.User {
	session := sessions.Default(c)
	username, ok := session.Get(sessionUsername).(string)
	if !ok || username == "" {
		return nil
	}
	loginAt, _ := session.Get(sessionLoginAt).(int64)
	if s.now().Sub(time.Unix(loginAt, 0)) >= s.maxAge {
		log.Debug("Session expired", "username", username)
		s.Logout(c)
		if err := session.Save(); err != nil {
			log.Error("Failed to save session", "error", err)
		}
		return nil
	}
	isAdmin, _ := session.Get(sessionIsAdmin).(bool)
	return &models.User{Username: username, IsAdmin: isAdmin}
}

// LoadUser makes the logged in user, if any, available under UserKey.
func (s *Sessions) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(UserKey, s.user(c))
		c.Next()
	}
}

// RequireAuth redirects anonymous visitors to the login page.
// It must run after LoadUser.
func (s *Sessions) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			session := sessions.Default(c)
			session.AddFlash("Please log in to view this page")
			if err := session.Save(); err != nil {
				log.Error("Failed to save session", "error", err)
			}
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin sends users without admin privileges back to the home page.
// It must run after RequireAuth.
func (s *Sessions) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := CurrentUser(c); user == nil || !user.IsAdmin {
			session := sessions.Default(c)
			session.AddFlash("This page is for admins only")
			if err := session.Save(); err != nil {
				log.Error("Failed to save session", "error", err)
			}
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user of the request, or nil for anonymous visitors.
func CurrentUser(c *gin.Context) *models.User {
	user, _ := c.Get(UserKey)
	u, _ := user.(*models.User)
	return u
}
