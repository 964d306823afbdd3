package services

import (
	"log"
	"sync"

	"agendamento-backend/utils"
)

type EmailKind int

const (
	EmailConfirmation EmailKind = iota
	EmailCancellation
)

type emailJob struct {
	kind EmailKind
	to   string
	data utils.EmailData
}

// Mailer dispatches appointment emails on a background worker so request
// handlers never wait on SMTP. Delivery is best-effort: failures are logged
// and never retried or surfaced to the caller.
type Mailer struct {
	sender    utils.Sender
	queue     chan emailJob
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewMailer(sender utils.Sender, queueSize int) *Mailer {
	if queueSize <= 0 {
		queueSize = 64
	}
	m := &Mailer{
		sender: sender,
		queue:  make(chan emailJob, queueSize),
	}
	m.wg.Add(1)
	go m.worker()
	return m
}

func (m *Mailer) worker() {
	defer m.wg.Done()
	for job := range m.queue {
		var subject, htmlBody, textBody string
		var err error
		switch job.kind {
		case EmailCancellation:
			subject, htmlBody, textBody, err = utils.RenderCancellationEmail(job.data)
		default:
			subject, htmlBody, textBody, err = utils.RenderConfirmationEmail(job.data)
		}
		if err != nil {
			log.Printf("mailer: failed to render email for %s: %v", job.to, err)
			continue
		}
		if err := m.sender.Send(job.to, subject, htmlBody, textBody); err != nil {
			log.Printf("mailer: failed to send email to %s: %v", job.to, err)
		}
	}
}

// Enqueue hands an email to the worker and returns immediately. A full queue
// drops the message rather than block the request path.
func (m *Mailer) Enqueue(kind EmailKind, to string, data utils.EmailData) {
	select {
	case m.queue <- emailJob{kind: kind, to: to, data: data}:
	default:
		log.Printf("mailer: queue full, dropping email to %s", to)
	}
}

// Close stops accepting new emails and waits for the queue to drain.
func (m *Mailer) Close() {
	m.closeOnce.Do(func() { close(m.queue) })
	m.wg.Wait()
}
