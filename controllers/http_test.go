package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"agendamento-backend/config"
	"agendamento-backend/controllers"
	"agendamento-backend/models"
	"agendamento-backend/routes"
	"agendamento-backend/services"
	"agendamento-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordedEmail struct {
	To      string
	Subject string
	HTML    string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []recordedEmail
}

func (r *recordingSender) Send(to, subject, htmlBody, textBody string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, recordedEmail{To: to, Subject: subject, HTML: htmlBody})
	return nil
}

func (r *recordingSender) emails() []recordedEmail {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedEmail, len(r.sent))
	copy(out, r.sent)
	return out
}

type testEnv struct {
	router  *gin.Engine
	db      *gorm.DB
	service *services.AppointmentService
	mailer  *services.Mailer
	sender  *recordingSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.StaffUser{}, &models.Session{}, &models.Appointment{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("segredo123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if err := db.Create(&models.StaffUser{Nome: "Equipe", Username: "hemope", Senha: string(hash)}).Error; err != nil {
		t.Fatalf("seed staff: %v", err)
	}

	sender := &recordingSender{}
	mailer := services.NewMailer(sender, 16)
	t.Cleanup(mailer.Close)

	svc := services.NewAppointmentService(db, config.AppointmentConfig{
		Times: []string{
			"07:30", "08:00", "08:30", "09:00", "09:30", "10:00",
			"10:30", "11:00", "11:30", "12:00", "12:30", "13:00",
			"13:30", "14:00", "14:30", "15:00", "15:30", "16:00",
			"16:30", "17:00",
		},
		Capacity: 10,
	})
	sessions := services.NewSessionService(db)

	router := routes.SetupRouter(
		controllers.NewAppointmentController(svc, mailer, "http://test.local"),
		controllers.NewCancelController(svc, sessions, mailer),
		controllers.NewDashboardController(svc),
		controllers.NewAuthController(sessions),
		sessions,
	)

	return &testEnv{router: router, db: db, service: svc, mailer: mailer, sender: sender}
}

func (e *testEnv) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := e.postForm("/login/", url.Values{"username": {"hemope"}, "password": {"segredo123"}})
	if w.Code != http.StatusOK {
		t.Fatalf("login failed with status %d: %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "sessao" && c.Value != "" {
			return c
		}
	}
	t.Fatal("login response missing session cookie")
	return nil
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad JSON response %q: %v", w.Body.String(), err)
	}
	return body
}

func bookingForm(email, data, hora string) url.Values {
	return url.Values{
		"nome":     {"Fulano de Tal"},
		"email":    {email},
		"telefone": {"81999990000"},
		"data":     {data},
		"hora":     {hora},
		"doador":   {"True"},
	}
}

func TestBookSuccessSendsConfirmation(t *testing.T) {
	env := newTestEnv(t)

	w := env.postForm("/agendar/", bookingForm("maria@example.com", "2024-06-10", "08:00"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["success"] != "Agendamento realizado com sucesso! Um e-mail de confirmação foi enviado." {
		t.Fatalf("unexpected body: %v", body)
	}

	var appt models.Appointment
	if err := env.db.Where("email = ?", "maria@example.com").First(&appt).Error; err != nil {
		t.Fatalf("appointment not persisted: %v", err)
	}
	if !appt.Doador || appt.Hora != "08:00" {
		t.Fatalf("persisted row wrong: %+v", appt)
	}

	env.mailer.Close()
	sent := env.sender.emails()
	if len(sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sent))
	}
	if sent[0].To != "maria@example.com" || sent[0].Subject != utils.SubjectConfirmation {
		t.Fatalf("unexpected email: %+v", sent[0])
	}
	wantLink := fmt.Sprintf("http://test.local/cancelar/%s/", appt.TokenCancelamento)
	if !strings.Contains(sent[0].HTML, wantLink) {
		t.Fatalf("email missing cancellation link %q", wantLink)
	}
}

func TestBookValidationMessages(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		data string
		hora string
		want string
	}{
		{"bad date", "10/06/2024", "08:00", "Data inválida."},
		{"bad hora", "2024-06-10", "8h00", "Hora inválida."},
		{"off-grid hora", "2024-06-10", "08:15", "Hora inválida."},
		{"before window", "2024-06-10", "07:00", "O horário deve estar entre 07:30 e 17:00"},
		{"after window", "2024-06-10", "18:00", "O horário deve estar entre 07:30 e 17:00"},
	}
	for _, tc := range cases {
		w := env.postForm("/agendar/", bookingForm("x@example.com", tc.data, tc.hora))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tc.name, w.Code)
		}
		if body := decodeBody(t, w); body["error"] != tc.want {
			t.Fatalf("%s: body = %v, want error %q", tc.name, body, tc.want)
		}
	}

	// nothing persisted, nothing emailed
	var count int64
	env.db.Model(&models.Appointment{}).Count(&count)
	if count != 0 {
		t.Fatalf("no rows should exist, got %d", count)
	}
	env.mailer.Close()
	if len(env.sender.emails()) != 0 {
		t.Fatal("no emails should be sent for rejected submissions")
	}
}

func TestBookSlotFullMessage(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 10; i++ {
		w := env.postForm("/agendar/", bookingForm(fmt.Sprintf("p%d@example.com", i), "2024-06-10", "08:00"))
		if body := decodeBody(t, w); body["success"] == nil {
			t.Fatalf("booking %d should succeed: %v", i, body)
		}
	}

	w := env.postForm("/agendar/", bookingForm("p11@example.com", "2024-06-10", "08:00"))
	if body := decodeBody(t, w); body["error"] != "Esse horário já está cheio!" {
		t.Fatalf("body = %v", body)
	}

	// the full slot disappears from availability
	aw := env.get("/horarios/2024-06-10/")
	var slots []map[string]interface{}
	if err := json.Unmarshal(aw.Body.Bytes(), &slots); err != nil {
		t.Fatalf("bad slots JSON: %v", err)
	}
	for _, slot := range slots {
		if slot["hora"] == "08:00" {
			t.Fatal("08:00 should be omitted once full")
		}
	}
}

func TestBookMonthlyLimitMessage(t *testing.T) {
	env := newTestEnv(t)

	env.postForm("/agendar/", bookingForm("maria@example.com", "2024-06-05", "08:00"))
	w := env.postForm("/agendar/", bookingForm("maria@example.com", "2024-06-20", "09:00"))
	if body := decodeBody(t, w); body["error"] != "Você já possui um agendamento neste mês." {
		t.Fatalf("body = %v", body)
	}

	w = env.postForm("/agendar/", bookingForm("maria@example.com", "2024-07-01", "08:00"))
	if body := decodeBody(t, w); body["success"] == nil {
		t.Fatalf("next month should be allowed: %v", body)
	}
}

func TestAvailableTimesEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.postForm("/agendar/", bookingForm("a@example.com", "2024-06-11", "10:00"))

	w := env.get("/horarios/2024-06-11/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var slots []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &slots); err != nil {
		t.Fatalf("bad slots JSON: %v", err)
	}
	if len(slots) != 20 {
		t.Fatalf("slot count = %d, want 20", len(slots))
	}
	for _, slot := range slots {
		if slot["hora"] == "10:00" && slot["vagas"] != float64(9) {
			t.Fatalf("10:00 vagas = %v, want 9", slot["vagas"])
		}
	}

	if w := env.get("/horarios/nao-e-data/"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad date should be 400, got %d", w.Code)
	}
}

func TestCancelByTokenFlow(t *testing.T) {
	env := newTestEnv(t)

	if w := env.postForm("/cancelar/token-desconhecido/", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown token should be 404, got %d", w.Code)
	}

	env.postForm("/agendar/", bookingForm("ana@example.com", "2024-06-10", "08:30"))
	var appt models.Appointment
	if err := env.db.Where("email = ?", "ana@example.com").First(&appt).Error; err != nil {
		t.Fatalf("missing appointment: %v", err)
	}

	// confirmation prompt
	w := env.get("/cancelar/" + appt.TokenCancelamento + "/")
	if w.Code != http.StatusOK {
		t.Fatalf("show status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["agendamento"] == nil {
		t.Fatalf("prompt body = %v", body)
	}

	// cancel
	w = env.postForm("/cancelar/"+appt.TokenCancelamento+"/", nil)
	if body := decodeBody(t, w); body["success"] != "Agendamento cancelado e e-mail de confirmação enviado com sucesso." {
		t.Fatalf("cancel body = %v", body)
	}

	// idempotent second cancel
	w = env.postForm("/cancelar/"+appt.TokenCancelamento+"/", nil)
	if body := decodeBody(t, w); body["warning"] != "Este agendamento já foi cancelado." {
		t.Fatalf("second cancel body = %v", body)
	}

	env.mailer.Close()
	cancellations := 0
	for _, mail := range env.sender.emails() {
		if mail.Subject == utils.SubjectCancellation {
			cancellations++
		}
	}
	if cancellations != 1 {
		t.Fatalf("cancellation emails = %d, want exactly 1", cancellations)
	}
}

func TestDashboardRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/dashboard/")
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login/" {
		t.Fatalf("redirect = %q, want /login/", loc)
	}
}

func TestLoginLogoutFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.postForm("/login/", url.Values{"username": {"hemope"}, "password": {"errada"}})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "Usuário ou senha inválidos" {
		t.Fatalf("body = %v", body)
	}

	cookie := env.login(t)

	env.postForm("/agendar/", bookingForm("lista@example.com", "2024-06-10", "08:00"))

	w = env.get("/dashboard/", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["total"] != float64(1) {
		t.Fatalf("dashboard total = %v, want 1", body["total"])
	}
	if _, ok := body["anos"]; !ok {
		t.Fatal("dashboard payload missing anos")
	}

	if w := env.get("/logout/", cookie); w.Code != http.StatusFound {
		t.Fatalf("logout status = %d", w.Code)
	}
	if w := env.get("/dashboard/", cookie); w.Code != http.StatusFound {
		t.Fatalf("dashboard after logout = %d, want 302", w.Code)
	}
}

func TestDashboardFilters(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	env.postForm("/agendar/", bookingForm("jun@example.com", "2024-06-10", "08:00"))
	env.postForm("/agendar/", bookingForm("jul@example.com", "2024-07-02", "09:00"))

	w := env.get("/dashboard/?mes=6", cookie)
	if body := decodeBody(t, w); body["total"] != float64(1) {
		t.Fatalf("mes=6 total = %v", body["total"])
	}

	w = env.get("/dashboard/?data=2024-07-02", cookie)
	if body := decodeBody(t, w); body["total"] != float64(1) {
		t.Fatalf("data filter total = %v", body["total"])
	}

	// non-numeric month is ignored, not an error
	w = env.get("/dashboard/?mes=junho", cookie)
	if body := decodeBody(t, w); body["total"] != float64(2) {
		t.Fatalf("ignored filter total = %v", body["total"])
	}

	if w := env.get("/dashboard/?data=02-07-2024", cookie); w.Code != http.StatusBadRequest {
		t.Fatalf("bad date filter should be 400, got %d", w.Code)
	}
}

func TestStaffCancelByID(t *testing.T) {
	env := newTestEnv(t)

	env.postForm("/agendar/", bookingForm("alvo@example.com", "2024-06-10", "08:00"))
	var appt models.Appointment
	if err := env.db.Where("email = ?", "alvo@example.com").First(&appt).Error; err != nil {
		t.Fatalf("missing appointment: %v", err)
	}
	idPath := fmt.Sprintf("/cancelar-dashboard/%d/", appt.ID)

	// unauthenticated → login redirect
	if w := env.postForm(idPath, nil); w.Code != http.StatusFound {
		t.Fatalf("unauthenticated staff cancel = %d, want 302", w.Code)
	}

	cookie := env.login(t)
	w := env.postForm(idPath, nil, cookie)
	if body := decodeBody(t, w); body["success"] == nil {
		t.Fatalf("staff cancel body = %v", body)
	}

	if w := env.postForm(fmt.Sprintf("/cancelar-dashboard/%d/", appt.ID+99), nil, cookie); w.Code != http.StatusNotFound {
		t.Fatalf("unknown id should be 404, got %d", w.Code)
	}
}

func TestStaffCancelViaCancelarRoute(t *testing.T) {
	env := newTestEnv(t)

	env.postForm("/agendar/", bookingForm("alvo2@example.com", "2024-06-10", "08:00"))
	var appt models.Appointment
	if err := env.db.Where("email = ?", "alvo2@example.com").First(&appt).Error; err != nil {
		t.Fatalf("missing appointment: %v", err)
	}
	idPath := fmt.Sprintf("/cancelar/%d/", appt.ID)

	// an all-digits ref without a session goes to the login page
	if w := env.postForm(idPath, nil); w.Code != http.StatusFound {
		t.Fatalf("unauthenticated id cancel = %d, want 302", w.Code)
	}

	cookie := env.login(t)
	w := env.postForm(idPath, nil, cookie)
	if body := decodeBody(t, w); body["success"] == nil {
		t.Fatalf("id cancel body = %v", body)
	}

	var got models.Appointment
	if err := env.db.First(&got, appt.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !got.Cancelado {
		t.Fatal("appointment should be cancelled")
	}
}

func TestSessionExpiresServerSide(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	if err := env.db.Model(&models.Session{}).
		Where("token = ?", cookie.Value).
		Update("expires_at", time.Now().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("expire session: %v", err)
	}

	if w := env.get("/dashboard/", cookie); w.Code != http.StatusFound {
		t.Fatalf("expired session should redirect, got %d", w.Code)
	}
}
