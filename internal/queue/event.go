// Package queue defines message payloads exchanged over the message broker.
package queue

// EmailRequested is published when the API needs a mail delivered
// out-of-band (currently the password-reset token). It carries everything
// the consumer needs to hand the message to the SMTP transport without
// touching the primary database.
type EmailRequested struct {
	To          string `json:"to"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	RequestedAt string `json:"requested_at"`
}
