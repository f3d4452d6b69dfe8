package services

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/solventa/solventa-backend/internal/worker"
)

type Mailer interface {
	Send(to, subject, body string) error
}

// LogMailer is the dev/test sender; it only logs the event. A real
// provider slots in behind the same interface.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	slog.Info("mail sent", "to", to, "subject", subject)
	return nil
}

// Notifier renders product emails and hands them to the worker pool.
// Callers never wait on a send.
type Notifier struct {
	mailer Mailer
	pool   *worker.Pool
}

func NewNotifier(m Mailer, pool *worker.Pool) *Notifier {
	return &Notifier{mailer: m, pool: pool}
}

func (n *Notifier) send(to, subject, body string) {
	n.pool.Submit(func() {
		if err := n.mailer.Send(to, subject, body); err != nil {
			slog.Error("mail send failed", "to", to, "subject", subject, "err", err)
		}
	})
}

func (n *Notifier) Welcome(email, username string) {
	n.send(email, "Welcome to Solventa", fmt.Sprintf("Hi %s, your account is ready.", username))
}

func (n *Notifier) TransferReceived(email string, amount decimal.Decimal, currency string) {
	n.send(email, "You received a transfer",
		fmt.Sprintf("You received %s %s.", amount.String(), currency))
}

func (n *Notifier) CardIssued(email, last4 string) {
	n.send(email, "Your virtual card is ready",
		fmt.Sprintf("A new virtual card ending in %s was issued.", last4))
}

func (n *Notifier) KYCDecision(email string, approved bool, reason string) {
	if approved {
		n.send(email, "Identity verified", "Your identity verification was approved.")
		return
	}
	n.send(email, "Identity verification update",
		fmt.Sprintf("Your identity verification was rejected: %s", reason))
}
