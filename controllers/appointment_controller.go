package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"agendamento-backend/services"
	"agendamento-backend/utils"

	"github.com/gin-gonic/gin"
)

// AppointmentController serves the public booking endpoints.
type AppointmentController struct {
	Service *services.AppointmentService
	Mailer  *services.Mailer
	// BaseURL prefixes the cancellation link placed in confirmation emails.
	BaseURL string
}

func NewAppointmentController(svc *services.AppointmentService, mailer *services.Mailer, baseURL string) *AppointmentController {
	return &AppointmentController{
		Service: svc,
		Mailer:  mailer,
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

type bookingPayload struct {
	Nome     string `form:"nome" json:"nome"`
	Email    string `form:"email" json:"email"`
	Telefone string `form:"telefone" json:"telefone"`
	Data     string `form:"data" json:"data"`
	Hora     string `form:"hora" json:"hora"`
	Doador   string `form:"doador" json:"doador"`
}

// Home is the landing endpoint.
func (ac *AppointmentController) Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "Agendamento de Coleta de Sangue - HEMOPE",
		"status":  "ok",
	})
}

// BookingForm returns the data the booking page is built from.
func (ac *AppointmentController) BookingForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"horarios": ac.Service.Cfg.Times})
}

// Book handles a booking submission. User-facing failures (bad date/time,
// monthly limit, full slot) come back as 200 with an error payload; only
// infrastructure faults are 5xx.
func (ac *AppointmentController) Book(c *gin.Context) {
	var payload bookingPayload
	if err := c.ShouldBind(&payload); err != nil {
		utils.JSONError(c, http.StatusOK, "Dados inválidos.")
		return
	}

	nome := strings.TrimSpace(payload.Nome)
	email := strings.TrimSpace(payload.Email)
	if nome == "" || email == "" {
		utils.JSONError(c, http.StatusOK, "Dados inválidos.")
		return
	}

	data, err := ac.Service.ParseDate(payload.Data)
	if err != nil {
		utils.JSONError(c, http.StatusOK, "Data inválida.")
		return
	}

	hora, err := ac.Service.ValidateTime(payload.Hora)
	if err != nil {
		if errors.Is(err, services.ErrTimeWindow) {
			utils.JSONError(c, http.StatusOK, "O horário deve estar entre 07:30 e 17:00")
			return
		}
		utils.JSONError(c, http.StatusOK, "Hora inválida.")
		return
	}

	appt, err := ac.Service.Create(services.BookingInput{
		Nome:     nome,
		Email:    email,
		Telefone: payload.Telefone,
		Data:     data,
		Hora:     hora,
		Doador:   payload.Doador == "True",
	})
	switch {
	case errors.Is(err, services.ErrMonthlyLimit):
		utils.JSONError(c, http.StatusOK, "Você já possui um agendamento neste mês.")
		return
	case errors.Is(err, services.ErrSlotFull):
		utils.JSONError(c, http.StatusOK, "Esse horário já está cheio!")
		return
	case err != nil:
		utils.JSONError(c, http.StatusInternalServerError, "Não foi possível concluir o agendamento.")
		return
	}

	ac.Mailer.Enqueue(services.EmailConfirmation, appt.Email, utils.EmailData{
		Nome:             appt.Nome,
		Data:             appt.DataFormatada(),
		Hora:             appt.Hora,
		Doador:           doadorLabel(appt.Doador),
		Protocolo:        appt.Protocolo,
		LinkCancelamento: fmt.Sprintf("%s/cancelar/%s/", ac.BaseURL, appt.TokenCancelamento),
	})

	utils.JSONSuccess(c, "Agendamento realizado com sucesso! Um e-mail de confirmação foi enviado.")
}

// AvailableTimes returns the remaining capacity per slot for a date, as a
// bare JSON array of {hora, vagas}.
func (ac *AppointmentController) AvailableTimes(c *gin.Context) {
	data, err := ac.Service.ParseDate(c.Param("data"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Data inválida.")
		return
	}

	slots, err := ac.Service.AvailableTimes(data)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Não foi possível consultar os horários.")
		return
	}
	c.JSON(http.StatusOK, slots)
}

func doadorLabel(doador bool) string {
	if doador {
		return "Sim"
	}
	return "Não"
}
