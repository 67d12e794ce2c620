package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/mail"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/security"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user/entity"
)

var ErrInvalidResetToken = apperr.New(apperr.KindBadRequest, "Invalid token")

// Service issues access tokens and drives the password recovery flow.
type Service struct {
	users  *user.Service
	tokens *security.TokenService
	mail   *mail.Service
	logger *zap.SugaredLogger
}

func NewService(users *user.Service, tokens *security.TokenService, mailer *mail.Service, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if mailer == nil {
		mailer = mail.NewService(mail.Config{}, nil)
	}
	return &Service{users: users, tokens: tokens, mail: mailer, logger: logger}
}

func (s *Service) Login(ctx context.Context, email, password string) (entity.Token, error) {
	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return entity.Token{}, err
	}
	tok, err := s.tokens.IssueAccessToken(u.ID.String())
	if err != nil {
		return entity.Token{}, err
	}
	return entity.BearerToken(tok), nil
}

// RecoverPassword emails a reset link when the account exists. Callers get
// the same answer either way so emails cannot be probed.
func (s *Service) RecoverPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrEmailNotFound) {
		s.logger.Debugw("password recovery for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	msg, err := s.recoveryMessage(u.Email)
	if err != nil {
		return err
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.Warnw("password recovery email failed", "user_id", u.ID, "err", err)
	}
	return nil
}

// RecoveryMessage renders the recovery email without sending it.
func (s *Service) RecoveryMessage(ctx context.Context, email string) (mail.Message, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return mail.Message{}, err
	}
	return s.recoveryMessage(u.Email)
}

func (s *Service) recoveryMessage(email string) (mail.Message, error) {
	tok, err := s.tokens.CreatePasswordResetToken(email)
	if err != nil {
		return mail.Message{}, err
	}
	return s.mail.ResetPasswordEmail(email, tok)
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	email, err := s.tokens.ParsePasswordResetToken(token)
	if err != nil {
		return ErrInvalidResetToken
	}
	return s.users.ResetPassword(ctx, email, newPassword)
}
