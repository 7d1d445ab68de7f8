package users

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds the options the security manager needs to mint and verify
// session proofs.
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
}

// Mailer renders and dispatches the transactional messages the lifecycle
// emits. Implementations receive the token hash and are responsible for
// embedding it into an activation or reset link.
type Mailer interface {
	SendActivation(ctx context.Context, email, tokenHash string) error
	SendPasswordReset(ctx context.Context, email, tokenHash string) error
}

// TokenService signs and verifies session proofs.
type TokenService interface {
	Generate(user *User) (string, error)
	Validate(proof string) (*SessionClaims, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] USERS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] USERS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] USERS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] USERS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

type noopMailer struct{}

func (noopMailer) SendActivation(context.Context, string, string) error    { return nil }
func (noopMailer) SendPasswordReset(context.Context, string, string) error { return nil }

func normalizeMailer(m Mailer) Mailer {
	if m == nil {
		return noopMailer{}
	}
	return m
}
