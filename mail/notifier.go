package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

const activationTemplate = `<html>
<body>
<p>Hello,</p>
<p>An account was requested for this address. Follow the link below to activate it:</p>
<p><a href="{{.Link}}">Activate your account</a></p>
<p>If you did not request an account you can safely ignore this message.</p>
</body>
</html>`

const passwordResetTemplate = `<html>
<body>
<p>Hello,</p>
<p>A password reset was requested for your account. Follow the link below to choose a new password:</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>If you did not request a reset you can safely ignore this message; your password has not changed.</p>
</body>
</html>`

// NotifierSettings configure the account notifier. BaseURL is the public
// address of the application the activation and reset links point at.
type NotifierSettings struct {
	BaseURL        string
	ActivationPath string
	ResetPath      string
	From           string
	Subjects       Subjects
}

// Subjects lets callers override the default message subjects.
type Subjects struct {
	Activation    string
	PasswordReset string
}

// Notifier implements the account mailer on top of a Sender. It renders
// HTML messages that carry the token hash as a link parameter.
type Notifier struct {
	sender     Sender
	cfg        NotifierSettings
	activation *template.Template
	reset      *template.Template
}

// NewNotifier builds a Notifier. BaseURL is required; paths and subjects
// fall back to sensible defaults.
func NewNotifier(sender Sender, cfg NotifierSettings) (*Notifier, error) {
	if sender == nil {
		return nil, fmt.Errorf("mail: sender is required")
	}

	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("mail: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("mail: invalid base URL: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(base, "/")

	if cfg.ActivationPath == "" {
		cfg.ActivationPath = "/account/activate"
	}
	if cfg.ResetPath == "" {
		cfg.ResetPath = "/account/password/reset"
	}
	if cfg.Subjects.Activation == "" {
		cfg.Subjects.Activation = "Activate your account"
	}
	if cfg.Subjects.PasswordReset == "" {
		cfg.Subjects.PasswordReset = "Reset your password"
	}

	activation, err := template.New("activation").Parse(activationTemplate)
	if err != nil {
		return nil, fmt.Errorf("mail: parse activation template: %w", err)
	}
	reset, err := template.New("reset").Parse(passwordResetTemplate)
	if err != nil {
		return nil, fmt.Errorf("mail: parse reset template: %w", err)
	}

	return &Notifier{
		sender:     sender,
		cfg:        cfg,
		activation: activation,
		reset:      reset,
	}, nil
}

// SendActivation delivers the account activation message for the given
// token hash.
func (n *Notifier) SendActivation(ctx context.Context, email, tokenHash string) error {
	link := n.buildLink(n.cfg.ActivationPath, tokenHash)
	return n.send(ctx, email, n.cfg.Subjects.Activation, n.activation, link)
}

// SendPasswordReset delivers the password reset message for the given
// token hash.
func (n *Notifier) SendPasswordReset(ctx context.Context, email, tokenHash string) error {
	link := n.buildLink(n.cfg.ResetPath, tokenHash)
	return n.send(ctx, email, n.cfg.Subjects.PasswordReset, n.reset, link)
}

func (n *Notifier) buildLink(path, tokenHash string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("%s%s?token=%s", n.cfg.BaseURL, path, url.QueryEscape(tokenHash))
}

func (n *Notifier) send(ctx context.Context, email, subject string, tpl *template.Template, link string) error {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, struct{ Link string }{Link: link}); err != nil {
		return fmt.Errorf("mail: render %s: %w", tpl.Name(), err)
	}

	return n.sender.Send(ctx, Message{
		From:    n.cfg.From,
		To:      []string{email},
		Subject: subject,
		Body:    buf.String(),
	})
}
