package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"agendamento-backend/services"
	"agendamento-backend/utils"

	"github.com/gin-gonic/gin"
)

// DashboardController serves the authenticated staff listing.
type DashboardController struct {
	Service *services.AppointmentService
}

func NewDashboardController(svc *services.AppointmentService) *DashboardController {
	return &DashboardController{Service: svc}
}

// Index lists appointments, newest first, filterable by exact date (data),
// month (mes) and year (ano). Non-numeric mes/ano values are ignored, bad
// dates are rejected.
func (dc *DashboardController) Index(c *gin.Context) {
	var filters services.ListFilters

	if raw := strings.TrimSpace(c.Query("data")); raw != "" {
		data, err := dc.Service.ParseDate(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Data inválida.")
			return
		}
		filters.Data = &data
	}
	if raw := c.Query("ano"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filters.Ano = n
		}
	}
	if raw := c.Query("mes"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filters.Mes = n
		}
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}

	result, err := dc.Service.List(filters, page)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Não foi possível carregar os agendamentos.")
		return
	}

	items := make([]gin.H, 0, len(result.Items))
	for i := range result.Items {
		a := &result.Items[i]
		items = append(items, gin.H{
			"id":        a.ID,
			"nome":      a.Nome,
			"email":     a.Email,
			"telefone":  a.Telefone,
			"data":      a.DataFormatada(),
			"hora":      a.Hora,
			"doador":    a.Doador,
			"cancelado": a.Cancelado,
			"protocolo": a.Protocolo,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"agendamentos": items,
		"total":        result.Total,
		"page":         result.Page,
		"pages":        result.Pages,
		"anos":         result.Anos,
	})
}
