package controllers

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"agendamento-backend/middleware"
	"agendamento-backend/models"
	"agendamento-backend/services"
	"agendamento-backend/utils"

	"github.com/gin-gonic/gin"
)

// CancelController handles both public (token) and staff (id) cancellation.
type CancelController struct {
	Service  *services.AppointmentService
	Sessions *services.SessionService
	Mailer   *services.Mailer
}

func NewCancelController(svc *services.AppointmentService, sessions *services.SessionService, mailer *services.Mailer) *CancelController {
	return &CancelController{Service: svc, Sessions: sessions, Mailer: mailer}
}

// An all-digits path parameter is a staff cancel-by-id; cancellation tokens
// are base64url and always contain non-digit characters.
var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

func (cc *CancelController) authenticated(c *gin.Context) bool {
	token, _ := c.Cookie(middleware.SessionCookie)
	_, err := cc.Sessions.Validate(token)
	return err == nil
}

func (cc *CancelController) resolve(c *gin.Context) (*models.Appointment, bool) {
	ref := c.Param("token")
	if digitsOnly.MatchString(ref) {
		if !cc.authenticated(c) {
			c.Redirect(http.StatusFound, "/login/")
			c.Abort()
			return nil, false
		}
		id, err := strconv.ParseUint(ref, 10, 32)
		if err != nil {
			utils.JSONError(c, http.StatusNotFound, "Agendamento não encontrado.")
			return nil, false
		}
		appt, err := cc.Service.FindByID(uint(id))
		if err != nil {
			utils.JSONError(c, http.StatusNotFound, "Agendamento não encontrado.")
			return nil, false
		}
		return appt, true
	}

	appt, err := cc.Service.FindByToken(ref)
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "Agendamento não encontrado.")
		return nil, false
	}
	return appt, true
}

// Show returns the data the cancellation confirmation prompt is built from.
func (cc *CancelController) Show(c *gin.Context) {
	appt, ok := cc.resolve(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"agendamento": gin.H{
			"nome":      appt.Nome,
			"data":      appt.DataFormatada(),
			"hora":      appt.Hora,
			"doador":    appt.Doador,
			"protocolo": appt.Protocolo,
			"cancelado": appt.Cancelado,
		},
	})
}

// Cancel marks the appointment cancelled and dispatches the notification
// email. Cancelling twice is a no-op reported as a warning, with no second
// email.
func (cc *CancelController) Cancel(c *gin.Context) {
	appt, ok := cc.resolve(c)
	if !ok {
		return
	}
	cc.cancel(c, appt)
}

// CancelByID is the staff dashboard cancellation; the route sits behind the
// session middleware.
func (cc *CancelController) CancelByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "Agendamento não encontrado.")
		return
	}
	appt, err := cc.Service.FindByID(uint(id))
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "Agendamento não encontrado.")
		return
	}
	cc.cancel(c, appt)
}

func (cc *CancelController) cancel(c *gin.Context, appt *models.Appointment) {
	if err := cc.Service.Cancel(appt); err != nil {
		if errors.Is(err, services.ErrAlreadyCancelled) {
			utils.JSONWarning(c, "Este agendamento já foi cancelado.")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "Não foi possível cancelar o agendamento.")
		return
	}

	cc.Mailer.Enqueue(services.EmailCancellation, appt.Email, utils.EmailData{
		Nome:      appt.Nome,
		Data:      appt.DataFormatada(),
		Hora:      appt.Hora,
		Protocolo: appt.Protocolo,
	})

	utils.JSONSuccess(c, "Agendamento cancelado e e-mail de confirmação enviado com sucesso.")
}
