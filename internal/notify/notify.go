package notify

import (
	"log"

	gomail "gopkg.in/gomail.v2"
)

// Notifier побочный e-mail канал: best-effort, никогда не блокирует
// и не откатывает основную операцию
type Notifier interface {
	Send(to, subject, body string) error
}

// SMTP реализация поверх gomail
type SMTP struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTP(host string, port int, user, pass, from string) *SMTP {
	return &SMTP{dialer: gomail.NewDialer(host, port, user, pass), from: from}
}

func (s *SMTP) Send(to, subject, body string) error {
	if to == "" {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}

// LogOnly заглушка для окружений без SMTP: пишет уведомление в лог
type LogOnly struct{}

func (LogOnly) Send(to, subject, _ string) error {
	log.Printf("[notify] (log-only) to=%s subject=%q", to, subject)
	return nil
}
