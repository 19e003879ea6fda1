package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/brokerapp/server/internal/clock"
	"github.com/brokerapp/server/internal/mail"
	"github.com/brokerapp/server/internal/model"
	"github.com/brokerapp/server/internal/repo"
)

// Options tunes the facade.
type Options struct {
	OtpTTL         time.Duration
	MailTimeout    time.Duration
	RevokeOnLogout bool
}

// Service orchestrates authentication operations. Every method returns
// either a nil error or an *Error.
type Service struct {
	otps     OtpProvider
	sessions SessionProvider
	userRepo repo.UserRepo
	mailer   mail.Sender
	clock    clock.Clocker
	logger   *zap.Logger
	validate *validator.Validate
	opts     Options
}

// NewService creates a new auth service
func NewService(
	otps OtpProvider,
	sessions SessionProvider,
	userRepo repo.UserRepo,
	mailer mail.Sender,
	clk clock.Clocker,
	logger *zap.Logger,
	opts Options,
) *Service {
	return &Service{
		otps:     otps,
		sessions: sessions,
		userRepo: userRepo,
		mailer:   mailer,
		clock:    clk,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		opts:     opts,
	}
}

type requestCodeInput struct {
	Email string `validate:"required,contains=@"`
}

type verifyCodeInput struct {
	Email string `validate:"required"`
	Code  string `validate:"required"`
}

// VerifyResult is returned by a successful VerifyCode. Token is meant for
// the session cookie and must not be logged.
type VerifyResult struct {
	User  model.UserView
	Token string
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) fail(log *zap.Logger, kind Kind, msg string, cause error) error {
	switch kind {
	case KindInternal, KindDelivery:
		log.Error(msg, zap.Stringer("kind", kind), zap.Error(cause))
	default:
		log.Info(msg, zap.Stringer("kind", kind))
	}
	return newError(kind, msg, cause)
}

// RequestCode provisions the user on first contact, issues a code and emails
// it. The code stays valid when delivery fails.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	in := requestCodeInput{Email: NormalizeEmail(email)}
	log := s.logger.With(zap.String("op", "request_code"), zap.String("email", in.Email))

	if err := s.validate.Struct(in); err != nil {
		return s.fail(log, KindValidation, MsgInvalidEmail, err)
	}

	if _, err := s.userRepo.GetOrCreateByEmail(ctx, in.Email, s.clock.Now()); err != nil {
		return s.fail(log, KindInternal, MsgInternalServerError, err)
	}

	code, err := s.otps.Issue(ctx, in.Email)
	if err != nil {
		return s.fail(log, KindInternal, MsgInternalServerError, err)
	}

	msg, err := mail.NewOTPMessage(in.Email, code, s.opts.OtpTTL)
	if err != nil {
		return s.fail(log, KindInternal, MsgInternalServerError, err)
	}

	sendCtx := ctx
	if s.opts.MailTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.opts.MailTimeout)
		defer cancel()
	}
	if err := s.mailer.Send(sendCtx, msg); err != nil {
		return s.fail(log, KindDelivery, MsgDeliveryFailed, err)
	}

	log.Info("login code sent")
	return nil
}

// VerifyCode redeems a code and opens a session for its owner.
func (s *Service) VerifyCode(ctx context.Context, email, code string) (VerifyResult, error) {
	in := verifyCodeInput{Email: NormalizeEmail(email), Code: strings.TrimSpace(code)}
	log := s.logger.With(zap.String("op", "verify_code"), zap.String("email", in.Email))

	if err := s.validate.Struct(in); err != nil {
		return VerifyResult{}, s.fail(log, KindValidation, MsgInvalidEmailOrCode, err)
	}

	ok, err := s.otps.Verify(ctx, in.Email, in.Code)
	if err != nil {
		return VerifyResult{}, s.fail(log, KindInternal, MsgInternalServerError, err)
	}
	if !ok {
		return VerifyResult{}, s.fail(log, KindAuth, MsgInvalidOrExpired, nil)
	}

	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return VerifyResult{}, s.fail(log, KindNotFound, MsgUserNotFound, err)
		}
		return VerifyResult{}, s.fail(log, KindInternal, MsgInternalServerError, err)
	}

	sessionID, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return VerifyResult{}, s.fail(log, KindInternal, MsgInternalServerError, err)
	}
	token, err := s.sessions.IssueToken(sessionID)
	if err != nil {
		return VerifyResult{}, s.fail(log, KindInternal, MsgInternalServerError, err)
	}

	log.Info("session created", zap.Int64("user_id", user.ID))
	return VerifyResult{User: user.View(), Token: token}, nil
}

// GetCurrentUser resolves a session token to the redacted user it belongs to.
func (s *Service) GetCurrentUser(ctx context.Context, token string) (model.UserView, error) {
	log := s.logger.With(zap.String("op", "get_current_user"))

	if token == "" {
		return model.UserView{}, newError(KindAuth, MsgNotAuthenticated, nil)
	}

	sessionID, ok := s.sessions.VerifyToken(token)
	if !ok {
		log.Debug(MsgInvalidSession)
		return model.UserView{}, newError(KindAuth, MsgInvalidSession, nil)
	}

	user, _, err := s.sessions.ResolveSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			log.Debug(MsgSessionExpired)
			return model.UserView{}, newError(KindAuth, MsgSessionExpired, err)
		}
		return model.UserView{}, s.fail(log, KindInternal, MsgInternalServerError, err)
	}

	return user.View(), nil
}

// Logout always succeeds. The caller clears the cookie; the stored session
// is deleted only when RevokeOnLogout is set.
func (s *Service) Logout(ctx context.Context, token string) error {
	if !s.opts.RevokeOnLogout || token == "" {
		return nil
	}
	sessionID, ok := s.sessions.VerifyToken(token)
	if !ok {
		return nil
	}
	if err := s.sessions.RevokeSession(ctx, sessionID); err != nil {
		s.logger.Error("session revoke failed", zap.String("op", "logout"), zap.Error(err))
	}
	return nil
}
