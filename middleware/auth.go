package middleware

import (
	"net/http"

	"agendamento-backend/services"

	"github.com/gin-gonic/gin"
)

// SessionCookie is the name of the staff session cookie.
const SessionCookie = "sessao"

// SessionKey is the gin context key holding the validated *models.Session.
const SessionKey = "session"

// RequireSession guards staff routes. Missing or expired sessions are sent
// back to the login page.
func RequireSession(sessions *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(SessionCookie)
		sess, err := sessions.Validate(token)
		if err != nil {
			c.Redirect(http.StatusFound, "/login/")
			c.Abort()
			return
		}
		c.Set(SessionKey, sess)
		c.Next()
	}
}
