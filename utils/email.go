package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"os"
	"strings"
)

// EmailData carries the fields the appointment email templates render.
type EmailData struct {
	Nome             string
	Data             string // DD/MM/YYYY
	Hora             string // HH:MM
	Doador           string // "Sim" / "Não"
	Protocolo        string
	LinkCancelamento string
}

const (
	SubjectConfirmation = "Confirmação de Agendamento - HEMOPE"
	SubjectCancellation = "Confirmação de Cancelamento - HEMOPE"
)

var confirmationTmpl = template.Must(template.New("confirmacao").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Confirmação de Agendamento</title>
<style>
body { background:#f5f7fb; font-family:Arial, Helvetica, sans-serif; color:#222; }
.container { max-width:640px; margin:20px auto; }
.card { background:#fff; border:1px solid #e6eef6; padding:24px; border-radius:8px; }
.label { font-weight:700; width:140px; display:inline-block; }
.btn { display:inline-block; padding:12px 20px; background:#c0392b; color:#fff; text-decoration:none; border-radius:6px; margin-top:16px; }
</style>
</head>
<body>
<div class="container">
  <div class="card">
    <h2>Agendamento Confirmado</h2>
    <p>Olá {{.Nome}},</p>
    <p>Seu agendamento para coleta de sangue foi confirmado. Confira os detalhes:</p>
    <p><span class="label">Data:</span> {{.Data}}</p>
    <p><span class="label">Horário:</span> {{.Hora}}</p>
    <p><span class="label">Doador:</span> {{.Doador}}</p>
    <p><span class="label">Protocolo:</span> {{.Protocolo}}</p>
    <p>Se precisar desmarcar, use o botão abaixo.</p>
    <a class="btn" href="{{.LinkCancelamento}}" target="_blank">Cancelar agendamento</a>
    <p>Atenciosamente,<br>Equipe HEMOPE</p>
  </div>
</div>
</body>
</html>`))

var cancellationTmpl = template.Must(template.New("confirmcan").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Confirmação de Cancelamento</title>
<style>
body { background:#f5f7fb; font-family:Arial, Helvetica, sans-serif; color:#222; }
.container { max-width:640px; margin:20px auto; }
.card { background:#fff; border:1px solid #e6eef6; padding:24px; border-radius:8px; }
.label { font-weight:700; width:140px; display:inline-block; }
</style>
</head>
<body>
<div class="container">
  <div class="card">
    <h2>Agendamento Cancelado</h2>
    <p>Olá {{.Nome}},</p>
    <p>Seu agendamento foi cancelado conforme solicitado:</p>
    <p><span class="label">Data:</span> {{.Data}}</p>
    <p><span class="label">Horário:</span> {{.Hora}}</p>
    <p><span class="label">Protocolo:</span> {{.Protocolo}}</p>
    <p>Se desejar, você pode realizar um novo agendamento a qualquer momento.</p>
    <p>Atenciosamente,<br>Equipe HEMOPE</p>
  </div>
</div>
</body>
</html>`))

// RenderConfirmationEmail builds subject + HTML + plain-text bodies for the
// booking confirmation.
func RenderConfirmationEmail(d EmailData) (subject, htmlBody, textBody string, err error) {
	var buf bytes.Buffer
	if err = confirmationTmpl.Execute(&buf, d); err != nil {
		return "", "", "", err
	}
	textBody = fmt.Sprintf(
		"Olá %s,\n\n"+
			"Seu agendamento para coleta de sangue foi confirmado.\n\n"+
			"Data: %s\nHorário: %s\nDoador: %s\nProtocolo: %s\n\n"+
			"Para cancelar, acesse: %s\n\n"+
			"Atenciosamente,\nEquipe HEMOPE\n",
		d.Nome, d.Data, d.Hora, d.Doador, d.Protocolo, d.LinkCancelamento,
	)
	return SubjectConfirmation, buf.String(), textBody, nil
}

// RenderCancellationEmail builds subject + HTML + plain-text bodies for the
// cancellation notice.
func RenderCancellationEmail(d EmailData) (subject, htmlBody, textBody string, err error) {
	var buf bytes.Buffer
	if err = cancellationTmpl.Execute(&buf, d); err != nil {
		return "", "", "", err
	}
	textBody = fmt.Sprintf(
		"Olá %s,\n\n"+
			"Seu agendamento foi cancelado conforme solicitado.\n\n"+
			"Data: %s\nHorário: %s\nProtocolo: %s\n\n"+
			"Atenciosamente,\nEquipe HEMOPE\n",
		d.Nome, d.Data, d.Hora, d.Protocolo,
	)
	return SubjectCancellation, buf.String(), textBody, nil
}

// Sender delivers a rendered email to a single recipient.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// SMTPSender sends multipart text+HTML mail over net/smtp. When the SMTP
// environment is incomplete it logs a mock line instead of failing, so the
// booking flow works in development without a relay.
type SMTPSender struct {
	Host     string
	Port     string
	Username string
	Password string
	FromName string
}

func NewSMTPSenderFromEnv() *SMTPSender {
	return &SMTPSender{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		FromName: EnvOrDefault("SMTP_FROM_NAME", "HEMOPE Agendamento"),
	}
}

func (s *SMTPSender) configured() bool {
	return s.Host != "" && s.Port != "" && s.Username != "" && s.Password != ""
}

func (s *SMTPSender) Send(to, subject, htmlBody, textBody string) error {
	if !s.configured() {
		log.Printf("[MOCK EMAIL] to:%s subject:%s", to, subject)
		return nil
	}

	from := fmt.Sprintf("%s <%s>", s.FromName, s.Username)
	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)
	msg := BuildMultipartMessage(from, to, subject, textBody, htmlBody)

	return smtp.SendMail(addr, auth, s.Username, []string{to}, []byte(msg))
}

// BuildMultipartMessage assembles a MIME multipart/alternative message with
// plain-text and HTML parts.
func BuildMultipartMessage(from, to, subject, textBody, htmlBody string) string {
	boundary := "----=_AGENDAMENTO_EMAIL_BOUNDARY"

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary))

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(textBody + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	sb.WriteString(htmlBody + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return sb.String()
}
