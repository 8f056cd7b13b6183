// Package mailer delivers outgoing email, either directly over SMTP or
// through a RabbitMQ queue drained by a background consumer.
package mailer

// Email is a single HTML message.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Mailer sends an email.
type Mailer interface {
	Send(email Email) error
}
