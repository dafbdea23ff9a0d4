// Package services contains server-side business logic. CredentialService
// drives an account through signup, login, the second factor and password
// reset.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/lock"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/notify"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

const (
	DefaultTwoFactorTTL = 5 * time.Minute
	DefaultResetTTL     = 60 * time.Minute
)

// Operation names used in logs and metrics.
const (
	OpRegister      = "signup"
	OpLogin         = "login"
	OpVerify        = "verify_2fa"
	OpForgot        = "forgot_password"
	OpResetPassword = "reset_password"
)

// Hasher is the one-way password hash.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// SecretSource produces the one-time secrets.
type SecretSource interface {
	Code() (string, error)
	ResetToken() (string, error)
}

// SessionIssuer mints the bearer token handed out after the second factor.
type SessionIssuer interface {
	Issue(accountID, email string) (string, error)
}

// Notifier accepts messages for asynchronous delivery. It must not block.
type Notifier interface {
	Enqueue(ctx context.Context, msg notify.Message) bool
}

// CredentialConfig holds the lifecycle timings and the reset link base.
type CredentialConfig struct {
	TwoFactorTTL time.Duration
	ResetTTL     time.Duration
	ResetURLBase string
}

// Dependencies are the collaborators of CredentialService. Metrics may be nil.
type Dependencies struct {
	Repositories repomanager.RepositoryManager
	Hasher       Hasher
	Secrets      SecretSource
	Sessions     SessionIssuer
	Locker       lock.Locker
	Notifier     Notifier
	Metrics      *metrics.Metrics
}

// PendingTwoFactor is returned by Register and Login: a code has been sent
// and must be verified before a session is issued.
type PendingTwoFactor struct {
	Email     string
	ExpiresAt time.Time
}

// Session is the result of a successful second factor.
type Session struct {
	Token   string
	Account *models.Account
}

// CredentialService implements the credential lifecycle. Every
// read-modify-write on an account runs under Locker keyed by the normalized
// email, and inside RepositoryManager.InTx.
type CredentialService struct {
	repomanager repomanager.RepositoryManager
	hasher      Hasher
	secrets     SecretSource
	sessions    SessionIssuer
	locker      lock.Locker
	notifier    Notifier
	metrics     *metrics.Metrics
	logger      logging.Logger

	twoFactorTTL time.Duration
	resetTTL     time.Duration
	resetURLBase string

	now func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewCredentialService(deps Dependencies, cfg CredentialConfig, l logging.Logger) *CredentialService {
	if cfg.TwoFactorTTL <= 0 {
		cfg.TwoFactorTTL = DefaultTwoFactorTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = DefaultResetTTL
	}
	return &CredentialService{
		repomanager:  deps.Repositories,
		hasher:       deps.Hasher,
		secrets:      deps.Secrets,
		sessions:     deps.Sessions,
		locker:       deps.Locker,
		notifier:     deps.Notifier,
		metrics:      deps.Metrics,
		logger:       l.With("module", "credentials"),
		twoFactorTTL: cfg.TwoFactorTTL,
		resetTTL:     cfg.ResetTTL,
		resetURLBase: cfg.ResetURLBase,
		now:          time.Now,
	}
}

// Register creates the account and attaches the first 2FA challenge. A
// failed notification never undoes the account.
func (s *CredentialService) Register(ctx context.Context, in SignupInput) (_ *PendingTwoFactor, err error) {
	defer func() { s.observe(OpRegister, err) }()

	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, asValidationError(err)
	}

	unlock, err := s.locker.Lock(ctx, in.Email)
	if err != nil {
		return nil, s.internal(ctx, OpRegister, err)
	}
	defer unlock()

	repo := s.repomanager.Accounts()
	if _, err := repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, common.ErrConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, s.internal(ctx, OpRegister, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return nil, err
		}
		return nil, s.internal(ctx, OpRegister, err)
	}

	code, err := s.secrets.Code()
	if err != nil {
		return nil, s.internal(ctx, OpRegister, err)
	}

	account := &models.Account{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
	}
	account.SetTwoFactor(code, s.now().Add(s.twoFactorTTL))

	if _, err := repo.Create(ctx, account); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrConflict
		}
		return nil, s.internal(ctx, OpRegister, err)
	}

	s.logger.Info(ctx, "account created", "account_id", account.ID)
	s.notifier.Enqueue(ctx, twoFactorMessage(account.Email, code))

	return &PendingTwoFactor{Email: account.Email, ExpiresAt: account.TwoFactor.ExpiresAt}, nil
}

// Login checks the password and replaces any outstanding 2FA code with a
// fresh one. Unknown email and wrong password both yield
// common.ErrUnauthorized.
func (s *CredentialService) Login(ctx context.Context, email, password string) (_ *PendingTwoFactor, err error) {
	defer func() { s.observe(OpLogin, err) }()

	email = common.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.ErrUnauthorized
	}

	unlock, err := s.locker.Lock(ctx, email)
	if err != nil {
		return nil, s.internal(ctx, OpLogin, err)
	}
	defer unlock()

	var (
		pending *PendingTwoFactor
		code    string
	)
	err = s.repomanager.InTx(ctx, func(ctx context.Context, repo accounts.Repository) error {
		account, err := repo.GetByEmailForUpdate(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				// same cost as a real comparison, so timing does not tell
				// whether the account exists
				s.hasher.Verify(password, s.dummyPasswordHash())
				return common.ErrUnauthorized
			}
			return err
		}

		if !s.hasher.Verify(password, account.PasswordHash) {
			return common.ErrUnauthorized
		}

		code, err = s.secrets.Code()
		if err != nil {
			return err
		}
		account.SetTwoFactor(code, s.now().Add(s.twoFactorTTL))

		if err := repo.Save(ctx, account); err != nil {
			return err
		}
		pending = &PendingTwoFactor{Email: account.Email, ExpiresAt: account.TwoFactor.ExpiresAt}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return nil, err
		}
		return nil, s.internal(ctx, OpLogin, err)
	}

	s.notifier.Enqueue(ctx, twoFactorMessage(pending.Email, code))
	return pending, nil
}

// VerifyTwoFactor consumes the outstanding code and issues a session. An
// expired code is cleared as a side effect, so a retry sees
// common.ErrNoChallenge.
func (s *CredentialService) VerifyTwoFactor(ctx context.Context, email, code string) (_ *Session, err error) {
	defer func() { s.observe(OpVerify, err) }()

	email = common.NormalizeEmail(email)
	if email == "" {
		return nil, common.ErrNoChallenge
	}

	unlock, err := s.locker.Lock(ctx, email)
	if err != nil {
		return nil, s.internal(ctx, OpVerify, err)
	}
	defer unlock()

	var (
		session *Session
		outcome error
	)
	err = s.repomanager.InTx(ctx, func(ctx context.Context, repo accounts.Repository) error {
		session, outcome = nil, nil

		account, err := repo.GetByEmailForUpdate(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				outcome = common.ErrNoChallenge
				return nil
			}
			return err
		}

		if account.TwoFactor == nil {
			outcome = common.ErrNoChallenge
			return nil
		}

		if !account.TwoFactor.ValidAt(s.now()) {
			account.ClearTwoFactor()
			if err := repo.Save(ctx, account); err != nil {
				return err
			}
			// commit the clearing, report the expiry
			outcome = common.ErrCodeExpired
			return nil
		}

		if subtle.ConstantTimeCompare([]byte(account.TwoFactor.Secret), []byte(code)) != 1 {
			outcome = common.ErrInvalidCode
			return nil
		}

		account.ClearTwoFactor()
		token, err := s.sessions.Issue(account.ID, account.Email)
		if err != nil {
			return err
		}
		if err := repo.Save(ctx, account); err != nil {
			return err
		}
		session = &Session{Token: token, Account: account}
		return nil
	})
	if err != nil {
		return nil, s.internal(ctx, OpVerify, err)
	}
	if outcome != nil {
		return nil, outcome
	}

	s.logger.Info(ctx, "second factor verified", "account_id", session.Account.ID)
	return session, nil
}

// RequestPasswordReset attaches a fresh reset token when the email is known
// and mails the link. The result does not depend on whether the account
// exists; only store failures are reported.
func (s *CredentialService) RequestPasswordReset(ctx context.Context, email string) (err error) {
	defer func() { s.observe(OpForgot, err) }()

	email = common.NormalizeEmail(email)
	if email == "" {
		return nil
	}

	unlock, err := s.locker.Lock(ctx, email)
	if err != nil {
		return s.internal(ctx, OpForgot, err)
	}
	defer unlock()

	var token string
	err = s.repomanager.InTx(ctx, func(ctx context.Context, repo accounts.Repository) error {
		token = ""

		account, err := repo.GetByEmailForUpdate(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			return err
		}

		t, err := s.secrets.ResetToken()
		if err != nil {
			return err
		}
		account.SetReset(t, s.now().Add(s.resetTTL))

		if err := repo.Save(ctx, account); err != nil {
			return err
		}
		token = t
		return nil
	})
	if err != nil {
		return s.internal(ctx, OpForgot, err)
	}

	if token == "" {
		s.logger.Debug(ctx, "password reset requested for unknown email")
		return nil
	}

	link, err := resetLink(s.resetURLBase, token)
	if err != nil {
		// the token is stored; only the mail is lost
		s.logger.Error(ctx, "reset link not built", "error", err.Error())
		return nil
	}
	s.notifier.Enqueue(ctx, resetMessage(email, link))
	return nil
}

// ResetPassword replaces the password of the account holding token and
// clears the token. Unknown and expired tokens both yield
// common.ErrInvalidOrExpiredToken.
func (s *CredentialService) ResetPassword(ctx context.Context, in ResetInput) (err error) {
	defer func() { s.observe(OpResetPassword, err) }()

	if err := in.Validate(); err != nil {
		return asValidationError(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return err
		}
		return s.internal(ctx, OpResetPassword, err)
	}

	holder, err := s.repomanager.Accounts().GetByResetToken(ctx, in.Token, s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidOrExpiredToken
		}
		return s.internal(ctx, OpResetPassword, err)
	}

	unlock, err := s.locker.Lock(ctx, holder.Email)
	if err != nil {
		return s.internal(ctx, OpResetPassword, err)
	}
	defer unlock()

	err = s.repomanager.InTx(ctx, func(ctx context.Context, repo accounts.Repository) error {
		account, err := repo.GetByEmailForUpdate(ctx, holder.Email)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidOrExpiredToken
			}
			return err
		}

		// the token may have been replaced or used while we waited for the lock
		if account.Reset == nil || !account.Reset.ValidAt(s.now()) ||
			subtle.ConstantTimeCompare([]byte(account.Reset.Secret), []byte(in.Token)) != 1 {
			return common.ErrInvalidOrExpiredToken
		}

		account.PasswordHash = hash
		account.ClearReset()
		return repo.Save(ctx, account)
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidOrExpiredToken) {
			return err
		}
		return s.internal(ctx, OpResetPassword, err)
	}

	s.logger.Info(ctx, "password reset", "account_id", holder.ID)
	return nil
}

// Profile returns the account with the given ID.
func (s *CredentialService) Profile(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.repomanager.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "profile", err)
	}
	return account, nil
}

// internal logs a store or collaborator failure and hides it behind
// common.ErrorInternal.
func (s *CredentialService) internal(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, "operation failed", "op", op, "error", err.Error())
	return common.ErrorInternal
}

func (s *CredentialService) observe(op string, err error) {
	switch {
	case err == nil:
		s.metrics.RecordAuth(op, metrics.OutcomeSuccess)
	case errors.Is(err, common.ErrorInternal):
		s.metrics.RecordAuth(op, metrics.OutcomeError)
	default:
		s.metrics.RecordAuth(op, metrics.OutcomeRejected)
	}
}

// dummyPasswordHash is compared against when no account matches. It is
// computed once, on the first unknown-email login.
func (s *CredentialService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
