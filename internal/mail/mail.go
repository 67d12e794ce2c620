// Package mail composes the account emails. Delivery is behind Mailer; the
// shipped LogMailer only records what would have been sent.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/utilities"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type Message struct {
	MessageID string
	From      string
	To        string
	Subject   string
	HTML      string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// LogMailer writes the envelope to the log instead of an SMTP server.
type LogMailer struct {
	logger *zap.SugaredLogger
}

func NewLogMailer(logger *zap.SugaredLogger) *LogMailer { return &LogMailer{logger: logger} }

func (l *LogMailer) Send(_ context.Context, m Message) error {
	l.logger.Infow("email composed",
		"message_id", m.MessageID,
		"from", m.From,
		"to", m.To,
		"subject", m.Subject,
		"bytes", len(m.HTML),
	)
	return nil
}

type Config struct {
	Enabled         bool
	ProjectName     string
	FrontendHost    string
	FromEmail       string
	FromName        string
	ResetValidHours int

	// SnowflakeNode seeds the Message-ID generator; 0 to 1023.
	SnowflakeNode int64
}

type Service struct {
	cfg    Config
	mailer Mailer
}

func NewService(cfg Config, mailer Mailer) *Service {
	return &Service{cfg: cfg, mailer: mailer}
}

func (s *Service) Enabled() bool { return s != nil && s.cfg.Enabled }

func (s *Service) ResetPasswordEmail(email, token string) (Message, error) {
	link := strings.TrimRight(s.cfg.FrontendHost, "/") + "/reset-password?token=" + url.QueryEscape(token)
	subject := fmt.Sprintf("%s - Password recovery for user %s", s.cfg.ProjectName, email)
	return s.compose(email, subject, "reset_password.html", map[string]any{
		"ProjectName": s.cfg.ProjectName,
		"Username":    email,
		"Link":        link,
		"ValidHours":  s.cfg.ResetValidHours,
	})
}

func (s *Service) NewAccountEmail(email, username, password string) (Message, error) {
	subject := fmt.Sprintf("%s - New account for user %s", s.cfg.ProjectName, username)
	return s.compose(email, subject, "new_account.html", map[string]any{
		"ProjectName": s.cfg.ProjectName,
		"Username":    username,
		"Password":    password,
		"Link":        s.cfg.FrontendHost,
	})
}

func (s *Service) TestEmail(email string) (Message, error) {
	subject := s.cfg.ProjectName + " - Test email"
	return s.compose(email, subject, "test_email.html", map[string]any{
		"ProjectName": s.cfg.ProjectName,
		"Email":       email,
	})
}

// Send delivers m when emails are enabled and is a no-op otherwise.
func (s *Service) Send(ctx context.Context, m Message) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.mailer.Send(ctx, m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (s *Service) compose(to, subject, tmpl string, data map[string]any) (Message, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, tmpl, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", tmpl, err)
	}
	return Message{
		MessageID: s.messageID(),
		From:      s.from(),
		To:        to,
		Subject:   subject,
		HTML:      buf.String(),
	}, nil
}

func (s *Service) from() string {
	if s.cfg.FromName == "" {
		return s.cfg.FromEmail
	}
	return fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
}

func (s *Service) messageID() string {
	domain := "localhost"
	if at := strings.LastIndex(s.cfg.FromEmail, "@"); at >= 0 && at < len(s.cfg.FromEmail)-1 {
		domain = s.cfg.FromEmail[at+1:]
	}
	return "<" + utilities.NewSnowflakeIDWithNode(s.cfg.SnowflakeNode) + "@" + domain + ">"
}
