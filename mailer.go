package phonebook

import (
	"bytes"
	"context"
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
	"github.com/resend/resend-go/v2"
)

//go:embed templates/*.html
var templatesFS embed.FS

// VerificationMailer sends account-verification emails through Resend with a
// template-rendered HTML body.
type VerificationMailer struct {
	client  *resend.Client
	sender  string
	baseURL string
	engine  *django.Engine
	logger  Logger
}

var _ Mailer = (*VerificationMailer)(nil)

// NewVerificationMailer will create a new VerificationMailer
func NewVerificationMailer(apiKey, sender, baseURL string) (*VerificationMailer, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to scope mail templates")
	}

	engine := django.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load mail templates")
	}

	return &VerificationMailer{
		client:  resend.NewClient(apiKey),
		sender:  sender,
		baseURL: strings.TrimRight(baseURL, "/"),
		engine:  engine,
		logger:  defLogger{},
	}, nil
}

func (m *VerificationMailer) WithLogger(l Logger) *VerificationMailer {
	if l != nil {
		m.logger = l
	}
	return m
}

// VerificationLink builds the public confirmation URL for a token.
func (m *VerificationMailer) VerificationLink(token string) string {
	return m.baseURL + "/verify/" + token
}

func (m *VerificationMailer) SendVerification(ctx context.Context, email, token string) error {
	link := m.VerificationLink(token)

	var body bytes.Buffer
	if err := m.engine.Render(&body, "verification", map[string]any{
		"email": email,
		"link":  link,
	}); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render verification email")
	}

	params := &resend.SendEmailRequest{
		From:    m.sender,
		To:      []string{email},
		Subject: "Verify your email",
		Html:    body.String(),
		Text:    "Open the following link to verify your email: " + link,
	}

	sent, err := m.client.Emails.Send(params)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send verification email")
	}

	m.logger.Debug("verification email sent", "email", email, "message_id", sent.Id)
	return nil
}
