package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/mail"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/repomanager"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/security"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/utilities"
)

var (
	ErrEmailExists         = apperr.New(apperr.KindConflict, "The user with this email already exists in the system.")
	ErrEmailTaken          = apperr.New(apperr.KindConflict, "User with this email already exists")
	ErrUserNotFound        = apperr.New(apperr.KindNotFound, "The user with this id does not exist in the system")
	ErrEmailNotFound       = apperr.New(apperr.KindNotFound, "The user with this email does not exist in the system.")
	ErrNotEnoughPrivileges = apperr.New(apperr.KindForbidden, "The user doesn't have enough privileges")
	ErrSuperuserSelfDelete = apperr.New(apperr.KindForbidden, "Super users are not allowed to delete themselves")
	ErrIncorrectPassword   = apperr.New(apperr.KindBadRequest, "Incorrect password")
	ErrSamePassword        = apperr.New(apperr.KindBadRequest, "New password cannot be the same as the current one")
	ErrBadCredentials      = apperr.New(apperr.KindBadRequest, "Incorrect email or password")
	// login and reset report an inactive account as 400, unlike the guard's 403
	ErrInactiveUser    = apperr.WithStatus(apperr.KindInactiveAccount, 400, "Inactive user")
	ErrPasswordTooLong = apperr.Validation("password: must be at most 72 bytes")
)

// Service orchestrates account lifecycle flows.
type Service struct {
	rm     repomanager.Manager
	hasher security.PasswordHasher
	mail   *mail.Service
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewService(rm repomanager.Manager, hasher security.PasswordHasher, mailer *mail.Service, logger *zap.SugaredLogger) *Service {
	if hasher == nil {
		hasher = security.BcryptHasher{Cost: 12}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{rm: rm, hasher: hasher, mail: mailer, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) hash(pw string) (string, error) {
	h, err := s.hasher.Hash(pw)
	if errors.Is(err, security.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	return h, err
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	u, err := s.rm.Users(s.rm.Conn()).GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *Service) List(ctx context.Context, skip, limit int) (*entity.UsersPublic, error) {
	repo := s.rm.Users(s.rm.Conn())
	count, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	users, err := repo.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	out := &entity.UsersPublic{Data: make([]entity.UserPublic, 0, len(users)), Count: count}
	for i := range users {
		out.Data = append(out.Data, users[i].Public())
	}
	return out, nil
}

// Create is the superuser path: any flags may be set. A new-account email
// goes out when mail is configured.
func (s *Service) Create(ctx context.Context, in entity.UserCreate) (*entity.User, error) {
	u := &entity.User{Email: in.Email, FullName: in.FullName, IsActive: true}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.IsSuperuser != nil {
		u.IsSuperuser = *in.IsSuperuser
	}
	if err := s.insert(ctx, u, in.Password); err != nil {
		return nil, err
	}
	if s.mail.Enabled() {
		msg, err := s.mail.NewAccountEmail(u.Email, u.Email, in.Password)
		if err == nil {
			err = s.mail.Send(ctx, msg)
		}
		if err != nil {
			s.logger.Warnw("new account email failed", "user_id", u.ID, "err", err)
		}
	}
	return u, nil
}

// Register is the public sign-up path; it never grants privileges.
func (s *Service) Register(ctx context.Context, in entity.UserRegister) (*entity.User, error) {
	u := &entity.User{Email: in.Email, FullName: in.FullName, IsActive: true}
	if err := s.insert(ctx, u, in.Password); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) insert(ctx context.Context, u *entity.User, password string) error {
	repo := s.rm.Users(s.rm.Conn())
	if _, err := repo.GetByEmail(ctx, u.Email); err == nil {
		return ErrEmailExists
	} else if !errors.Is(err, database.ErrNotFound) {
		return err
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	now := s.now()
	u.ID = utilities.NewUUID()
	u.HashedPassword = hash
	u.CreatedAt, u.UpdatedAt = now, now
	if err := repo.Create(ctx, u); err != nil {
		// lost a race against a concurrent insert of the same email
		if errors.Is(err, database.ErrDuplicate) {
			return ErrEmailExists
		}
		return err
	}
	s.logger.Infow("user created", "user_id", u.ID, "superuser", u.IsSuperuser)
	return nil
}

// emailFree reports ErrEmailTaken when another account already has email.
func (s *Service) emailFree(ctx context.Context, email string, self uuid.UUID) error {
	other, err := s.rm.Users(s.rm.Conn()).GetByEmail(ctx, email)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != self:
		return ErrEmailTaken
	}
	return nil
}

func (s *Service) save(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = s.now()
	err := s.rm.Users(s.rm.Conn()).Update(ctx, u)
	switch {
	case errors.Is(err, database.ErrDuplicate):
		return ErrEmailTaken
	case errors.Is(err, database.ErrNotFound):
		return ErrUserNotFound
	}
	return err
}

func (s *Service) UpdateMe(ctx context.Context, caller *entity.User, in entity.UserUpdateMe) (*entity.User, error) {
	u := *caller
	if in.Email != nil {
		if err := s.emailFree(ctx, *in.Email, u.ID); err != nil {
			return nil, err
		}
		u.Email = *in.Email
	}
	if in.FullName != nil {
		u.FullName = in.FullName
	}
	if err := s.save(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) UpdatePassword(ctx context.Context, caller *entity.User, in entity.UpdatePassword) error {
	if !s.hasher.Verify(caller.HashedPassword, in.CurrentPassword) {
		return ErrIncorrectPassword
	}
	if in.CurrentPassword == in.NewPassword {
		return ErrSamePassword
	}
	hash, err := s.hash(in.NewPassword)
	if err != nil {
		return err
	}
	u := *caller
	u.HashedPassword = hash
	return s.save(ctx, &u)
}

// Read returns the caller themselves, or any account to a superuser.
func (s *Service) Read(ctx context.Context, caller *entity.User, id uuid.UUID) (*entity.User, error) {
	if id == caller.ID {
		return caller, nil
	}
	if !caller.IsSuperuser {
		return nil, ErrNotEnoughPrivileges
	}
	return s.GetByID(ctx, id)
}

// Update is the superuser partial update. A password in the payload is rehashed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in entity.UserUpdate) (*entity.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Email != nil {
		if err := s.emailFree(ctx, *in.Email, u.ID); err != nil {
			return nil, err
		}
		u.Email = *in.Email
	}
	if in.FullName != nil {
		u.FullName = in.FullName
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.IsSuperuser != nil {
		u.IsSuperuser = *in.IsSuperuser
	}
	if in.Password != nil {
		hash, err := s.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		u.HashedPassword = hash
	}
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) DeleteMe(ctx context.Context, caller *entity.User) error {
	if caller.IsSuperuser {
		return ErrSuperuserSelfDelete
	}
	return s.deleteCascade(ctx, caller.ID)
}

func (s *Service) Delete(ctx context.Context, caller *entity.User, id uuid.UUID) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.ID == caller.ID {
		return ErrSuperuserSelfDelete
	}
	return s.deleteCascade(ctx, u.ID)
}

// deleteCascade removes the account's items and then the account in one
// transaction.
func (s *Service) deleteCascade(ctx context.Context, id uuid.UUID) error {
	var removed int64
	err := s.rm.WithTx(ctx, func(ctx context.Context, q database.DBTX) error {
		n, err := s.rm.Items(q).DeleteByOwner(ctx, id)
		if err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		removed = n
		if err := s.rm.Users(q).Delete(ctx, id); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if errors.Is(err, database.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	s.logger.Infow("user deleted", "user_id", id, "items_removed", removed)
	return nil
}

// Authenticate checks credentials for the login form. Unknown emails still
// pay for one bcrypt comparison.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.rm.Users(s.rm.Conn()).GetByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		s.hasher.DummyVerify(password)
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(u.HashedPassword, password) {
		return nil, ErrBadCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}
	return u, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := s.rm.Users(s.rm.Conn()).GetByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrEmailNotFound
	}
	return u, err
}

// ResetPassword sets a new password for the account behind a verified reset token.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) error {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !u.IsActive {
		return ErrInactiveUser
	}
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	u.HashedPassword = hash
	return s.save(ctx, u)
}

// EnsureSuperuser creates the bootstrap superuser unless the email is taken.
func (s *Service) EnsureSuperuser(ctx context.Context, email, password string) (bool, error) {
	if email == "" {
		return false, errors.New("first superuser email is empty")
	}
	_, err := s.rm.Users(s.rm.Conn()).GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return false, err
	}
	u := &entity.User{Email: email, IsActive: true, IsSuperuser: true}
	if err := s.insert(ctx, u, password); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
