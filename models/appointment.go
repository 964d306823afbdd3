package models

import (
	"time"

	"gorm.io/datatypes"
)

// Appointment is one blood-collection booking. Rows are never deleted; the
// only mutation after creation is flipping Cancelado to true.
type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Nome      string         `gorm:"size:255" json:"nome"`
	Email     string         `gorm:"size:255;index" json:"email"`
	Telefone  string         `gorm:"size:20" json:"telefone"`
	Data      datatypes.Date `gorm:"index:idx_agendamentos_slot" json:"data"`
	Hora      string         `gorm:"size:5;index:idx_agendamentos_slot" json:"hora"`
	Doador    bool           `gorm:"default:false" json:"doador"`
	Cancelado bool           `gorm:"default:false" json:"cancelado"`

	// TokenCancelamento is the public capability used by the email link.
	TokenCancelamento string `gorm:"column:token_cancelamento;size:64;uniqueIndex" json:"-"`
	Protocolo         string `gorm:"size:36" json:"protocolo"`

	// Ano/Mes mirror Data so year/month filters stay portable across drivers.
	Ano int `gorm:"index" json:"-"`
	Mes int `gorm:"index" json:"-"`
}

func (Appointment) TableName() string { return "agendamentos" }

// DataFormatada returns the appointment date as DD/MM/YYYY for emails and
// dashboard display.
func (a *Appointment) DataFormatada() string {
	return time.Time(a.Data).Format("02/01/2006")
}
