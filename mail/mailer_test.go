package mail

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSMTPClient struct {
	mailFrom string
	rcpts    []string
	data     strings.Builder
	quit     bool
	authed   bool
}

func (f *fakeSMTPClient) Mail(from string) error { f.mailFrom = from; return nil }
func (f *fakeSMTPClient) Rcpt(to string) error   { f.rcpts = append(f.rcpts, to); return nil }
func (f *fakeSMTPClient) Data() (io.WriteCloser, error) {
	return nopWriteCloser{&f.data}, nil
}
func (f *fakeSMTPClient) Quit() error                      { f.quit = true; return nil }
func (f *fakeSMTPClient) Close() error                     { return nil }
func (f *fakeSMTPClient) StartTLS(*tls.Config) error       { return nil }
func (f *fakeSMTPClient) Auth(smtp.Auth) error             { f.authed = true; return nil }
func (f *fakeSMTPClient) Extension(string) (bool, string)  { return false, "" }

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func newTestSender(t *testing.T, cfg SMTPSettings) (*smtpSender, *fakeSMTPClient) {
	t.Helper()

	sender, err := NewSMTPSender(cfg)
	require.NoError(t, err)

	client := &fakeSMTPClient{}
	impl := sender.(*smtpSender)
	impl.dialFn = func(ctx context.Context, cfg SMTPSettings) (net.Conn, smtpClient, error) {
		server, conn := net.Pipe()
		_ = server.Close()
		return conn, client, nil
	}
	return impl, client
}

func TestSMTPSenderRequiresHost(t *testing.T) {
	_, err := NewSMTPSender(SMTPSettings{Port: 587})
	require.Error(t, err)

	_, err = NewSMTPSender(SMTPSettings{Host: "mail.example.com"})
	require.Error(t, err)
}

func TestSMTPSenderSend(t *testing.T) {
	sender, client := newTestSender(t, SMTPSettings{
		Host: "mail.example.com",
		Port: 587,
		From: "noreply@example.com",
	})

	err := sender.Send(context.Background(), Message{
		To:      []string{"user@example.com", "user@example.com", " "},
		Subject: "Hello",
		Body:    "<p>hi</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "noreply@example.com", client.mailFrom)
	assert.Equal(t, []string{"user@example.com"}, client.rcpts)
	assert.True(t, client.quit)

	payload := client.data.String()
	assert.Contains(t, payload, "Subject: Hello")
	assert.Contains(t, payload, "Content-Type: text/html")
	assert.Contains(t, payload, "<p>hi</p>")
}

func TestSMTPSenderRejectsInvalidAddresses(t *testing.T) {
	sender, _ := newTestSender(t, SMTPSettings{
		Host: "mail.example.com",
		Port: 587,
		From: "noreply@example.com",
	})

	err := sender.Send(context.Background(), Message{To: []string{"not-an-address"}})
	require.Error(t, err)

	err = sender.Send(context.Background(), Message{To: nil})
	require.Error(t, err)
}

func TestSMTPSenderAuthWhenCredentialsSet(t *testing.T) {
	sender, client := newTestSender(t, SMTPSettings{
		Host:     "mail.example.com",
		Port:     587,
		From:     "noreply@example.com",
		Username: "mailer",
		Password: "secret",
	})

	err := sender.Send(context.Background(), Message{To: []string{"user@example.com"}})
	require.NoError(t, err)
	assert.True(t, client.authed)
}

func TestEscapeHeaderStripsNewlines(t *testing.T) {
	got := escapeHeader("inject\r\nBcc: evil@example.com")
	assert.NotContains(t, got, "\n")
	assert.NotContains(t, got, "\r")
}

type recordingSender struct {
	messages []Message
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	r.messages = append(r.messages, msg)
	return nil
}

func TestNotifierRequiresBaseURL(t *testing.T) {
	_, err := NewNotifier(&recordingSender{}, NotifierSettings{})
	require.Error(t, err)

	_, err = NewNotifier(nil, NotifierSettings{BaseURL: "https://app.example.com"})
	require.Error(t, err)
}

func TestNotifierSendActivation(t *testing.T) {
	sender := &recordingSender{}
	notifier, err := NewNotifier(sender, NotifierSettings{
		BaseURL: "https://app.example.com/",
		From:    "noreply@example.com",
	})
	require.NoError(t, err)

	err = notifier.SendActivation(context.Background(), "user@example.com", "abc+123")
	require.NoError(t, err)

	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.Equal(t, []string{"user@example.com"}, msg.To)
	assert.Equal(t, "Activate your account", msg.Subject)
	assert.Contains(t, msg.Body, "https://app.example.com/account/activate?token=abc%2B123")
}

func TestNotifierSendPasswordReset(t *testing.T) {
	sender := &recordingSender{}
	notifier, err := NewNotifier(sender, NotifierSettings{
		BaseURL:   "https://app.example.com",
		ResetPath: "password/new",
		Subjects:  Subjects{PasswordReset: "Pick a new password"},
	})
	require.NoError(t, err)

	err = notifier.SendPasswordReset(context.Background(), "user@example.com", "deadbeef")
	require.NoError(t, err)

	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.Equal(t, "Pick a new password", msg.Subject)
	assert.Contains(t, msg.Body, "https://app.example.com/password/new?token=deadbeef")
}
