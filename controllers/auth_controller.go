package controllers

import (
	"errors"
	"net/http"

	"agendamento-backend/middleware"
	"agendamento-backend/services"
	"agendamento-backend/utils"

	"github.com/gin-gonic/gin"
)

// AuthController handles staff login/logout.
type AuthController struct {
	Sessions *services.SessionService
}

func NewAuthController(sessions *services.SessionService) *AuthController {
	return &AuthController{Sessions: sessions}
}

type loginPayload struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// LoginForm returns the data the login page is built from.
func (ac *AuthController) LoginForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"login": true})
}

// Login verifies credentials and sets the session cookie. The failure message
// is the same for unknown users and wrong passwords.
func (ac *AuthController) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBind(&payload); err != nil {
		utils.JSONError(c, http.StatusUnauthorized, "Usuário ou senha inválidos")
		return
	}

	sess, err := ac.Sessions.Login(payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.JSONError(c, http.StatusUnauthorized, "Usuário ou senha inválidos")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "Não foi possível iniciar a sessão.")
		return
	}

	// MaxAge 0 makes it a browser-session cookie; the server enforces the
	// fixed expiry on its side.
	c.SetCookie(middleware.SessionCookie, sess.Token, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "redirect": "/dashboard/"})
}

// Logout destroys the session and sends the client back to the login page.
func (ac *AuthController) Logout(c *gin.Context) {
	token, _ := c.Cookie(middleware.SessionCookie)
	_ = ac.Sessions.Logout(token)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/login/")
}
