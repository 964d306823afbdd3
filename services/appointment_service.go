package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"agendamento-backend/config"
	"agendamento-backend/models"
	"agendamento-backend/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrInvalidDate      = errors.New("data_invalida")
	ErrInvalidTime      = errors.New("hora_invalida")
	ErrTimeWindow       = errors.New("hora_fora_da_janela")
	ErrMonthlyLimit     = errors.New("limite_mensal")
	ErrSlotFull         = errors.New("horario_cheio")
	ErrNotFound         = errors.New("agendamento_nao_encontrado")
	ErrAlreadyCancelled = errors.New("agendamento_ja_cancelado")
)

const (
	windowOpenMinutes  = 7*60 + 30
	windowCloseMinutes = 17 * 60
	cancelTokenBytes   = 16
	// PageSize is the dashboard page length.
	PageSize = 20
)

// AppointmentService holds the slot rules and the booking store.
type AppointmentService struct {
	DB  *gorm.DB
	Cfg config.AppointmentConfig
}

func NewAppointmentService(db *gorm.DB, cfg config.AppointmentConfig) *AppointmentService {
	return &AppointmentService{DB: db, Cfg: cfg}
}

// ParseDate parses a YYYY-MM-DD value, normalized to UTC midnight so that
// stored dates compare consistently.
func (s *AppointmentService) ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ValidateTime parses an HH:MM value and checks it against the 07:30–17:00
// window and the configured slot list. Returns the canonical zero-padded form.
func (s *AppointmentService) ValidateTime(raw string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidTime
	}
	hora := t.Format("15:04")
	minutes := t.Hour()*60 + t.Minute()
	if minutes < windowOpenMinutes || minutes > windowCloseMinutes {
		return "", ErrTimeWindow
	}
	if !s.Cfg.HasTime(hora) {
		return "", ErrInvalidTime
	}
	return hora, nil
}

// BookingInput is a validated booking submission.
type BookingInput struct {
	Nome     string
	Email    string
	Telefone string
	Data     time.Time
	Hora     string
	Doador   bool
}

func monthlyCount(db *gorm.DB, email string, ano, mes int) (int64, error) {
	var count int64
	err := db.Model(&models.Appointment{}).
		Where("email = ? AND ano = ? AND mes = ?", email, ano, mes).
		Count(&count).Error
	return count, err
}

func slotCount(db *gorm.DB, data datatypes.Date, hora string) (int64, error) {
	var count int64
	err := db.Model(&models.Appointment{}).
		Where("data = ? AND hora = ?", data, hora).
		Count(&count).Error
	return count, err
}

// MonthlyLimitExceeded reports whether email already holds an appointment
// (cancelled or not) in the calendar month of date.
func (s *AppointmentService) MonthlyLimitExceeded(email string, date time.Time) (bool, error) {
	count, err := monthlyCount(s.DB, email, date.Year(), int(date.Month()))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SlotFull reports whether the (date, hora) pair is at capacity.
func (s *AppointmentService) SlotFull(date time.Time, hora string) (bool, error) {
	count, err := slotCount(s.DB, datatypes.Date(date), hora)
	if err != nil {
		return false, err
	}
	return count >= int64(s.Cfg.Capacity), nil
}

// Create inserts a new appointment. The monthly-limit and capacity checks run
// in the same transaction as the insert, so two simultaneous submissions
// cannot both slip past a full slot. The cancellation token is minted with
// crypto/rand and retried on the (unlikely) unique collision.
func (s *AppointmentService) Create(in BookingInput) (*models.Appointment, error) {
	appt := &models.Appointment{
		Nome:      strings.TrimSpace(in.Nome),
		Email:     strings.TrimSpace(in.Email),
		Telefone:  strings.TrimSpace(in.Telefone),
		Data:      datatypes.Date(in.Data),
		Hora:      in.Hora,
		Doador:    in.Doador,
		Protocolo: uuid.NewString(),
		Ano:       in.Data.Year(),
		Mes:       int(in.Data.Month()),
	}

	maxRetries := 5
	var createErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		token, err := utils.GenerateCancelToken(cancelTokenBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to generate cancellation token: %w", err)
		}
		appt.ID = 0
		appt.TokenCancelamento = token

		createErr = s.DB.Transaction(func(tx *gorm.DB) error {
			count, err := monthlyCount(tx, appt.Email, appt.Ano, appt.Mes)
			if err != nil {
				return err
			}
			if count > 0 {
				return ErrMonthlyLimit
			}

			count, err = slotCount(tx, appt.Data, appt.Hora)
			if err != nil {
				return err
			}
			if count >= int64(s.Cfg.Capacity) {
				return ErrSlotFull
			}

			return tx.Create(appt).Error
		})
		if createErr == nil {
			return appt, nil
		}
		if errors.Is(createErr, ErrMonthlyLimit) || errors.Is(createErr, ErrSlotFull) {
			return nil, createErr
		}

		lc := strings.ToLower(createErr.Error())
		if strings.Contains(lc, "duplicate") || strings.Contains(lc, "unique") || strings.Contains(lc, "constraint") {
			continue
		}
		return nil, fmt.Errorf("failed to create appointment: %w", createErr)
	}
	return nil, fmt.Errorf("failed to create appointment after retries: %w", createErr)
}

func (s *AppointmentService) FindByToken(token string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := s.DB.Where("token_cancelamento = ?", token).First(&appt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &appt, nil
}

func (s *AppointmentService) FindByID(id uint) (*models.Appointment, error) {
	var appt models.Appointment
	if err := s.DB.First(&appt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &appt, nil
}

// Cancel marks the appointment cancelled. A second call is a no-op reported
// as ErrAlreadyCancelled so callers can skip the notification email.
func (s *AppointmentService) Cancel(appt *models.Appointment) error {
	if appt.Cancelado {
		return ErrAlreadyCancelled
	}
	if err := s.DB.Model(appt).Update("cancelado", true).Error; err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}
	appt.Cancelado = true
	return nil
}

// SlotAvailability is one entry of the public availability endpoint.
type SlotAvailability struct {
	Hora  string `json:"hora"`
	Vagas int    `json:"vagas"`
}

// AvailableTimes returns, in slot order, every configured time that still has
// free seats on date, with the remaining count.
func (s *AppointmentService) AvailableTimes(date time.Time) ([]SlotAvailability, error) {
	type horaCount struct {
		Hora string
		Qtd  int
	}
	var rows []horaCount
	if err := s.DB.Model(&models.Appointment{}).
		Select("hora, COUNT(id) AS qtd").
		Where("data = ?", datatypes.Date(date)).
		Group("hora").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	occupied := make(map[string]int, len(rows))
	for _, r := range rows {
		occupied[r.Hora] = r.Qtd
	}

	out := make([]SlotAvailability, 0, len(s.Cfg.Times))
	for _, hora := range s.Cfg.Times {
		if vagas := s.Cfg.Capacity - occupied[hora]; vagas > 0 {
			out = append(out, SlotAvailability{Hora: hora, Vagas: vagas})
		}
	}
	return out, nil
}

// ListFilters narrows the dashboard listing. Data is an exact-date match;
// Ano/Mes filter by year and month independently when > 0.
type ListFilters struct {
	Data *time.Time
	Ano  int
	Mes  int
}

// AppointmentPage is one dashboard page plus the filter metadata.
type AppointmentPage struct {
	Items []models.Appointment
	Total int64
	Page  int
	Pages int
	// Anos are the distinct years present across all appointments, descending,
	// for populating the filter UI.
	Anos []int
}

// List returns a page ordered by date then time, both descending. An
// out-of-range page is clamped to the nearest valid page.
func (s *AppointmentService) List(f ListFilters, page int) (*AppointmentPage, error) {
	q := s.DB.Model(&models.Appointment{})
	if f.Data != nil {
		q = q.Where("data = ?", datatypes.Date(*f.Data))
	}
	if f.Ano > 0 {
		q = q.Where("ano = ?", f.Ano)
	}
	if f.Mes > 0 {
		q = q.Where("mes = ?", f.Mes)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	pages := int((total + PageSize - 1) / PageSize)
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	var items []models.Appointment
	if err := q.Order("data DESC, hora DESC").
		Limit(PageSize).
		Offset((page - 1) * PageSize).
		Find(&items).Error; err != nil {
		return nil, err
	}

	var anos []int
	if err := s.DB.Model(&models.Appointment{}).
		Distinct().
		Order("ano DESC").
		Pluck("ano", &anos).Error; err != nil {
		return nil, err
	}

	return &AppointmentPage{
		Items: items,
		Total: total,
		Page:  page,
		Pages: pages,
		Anos:  anos,
	}, nil
}
