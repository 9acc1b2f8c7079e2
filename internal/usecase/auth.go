// Package usecase contains application use cases.
package usecase

import (
	"context"
	"strings"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
)

// Log categories.
const (
	catAuth     = "auth"
	catTasks    = "tasks"
	catUpload   = "upload"
	catRealtime = "realtime"
)

// CredentialsInput contains the email and password for sign-in and sign-up.
type CredentialsInput struct {
	Email    string
	Password string
}

func (in CredentialsInput) validate() error {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return domain.ErrEmptyCredentials
	}
	return nil
}

// SessionOutput carries the session returned by an identity call.
type SessionOutput struct {
	Session *domain.Session // nil when signed out or awaiting confirmation
}

// GetSession is the use case for fetching the current session.
type GetSession struct {
	identity domain.IdentityService
}

// NewGetSession creates a new GetSession use case.
func NewGetSession(identity domain.IdentityService) *GetSession {
	return &GetSession{identity: identity}
}

// Execute returns the current session, or a nil session when signed out.
func (uc *GetSession) Execute(ctx context.Context, _ struct{}) (*SessionOutput, error) {
	s, err := uc.identity.GetSession(ctx)
	if err != nil {
		return nil, domain.NewError(domain.KindAuth, "get session", err)
	}
	return &SessionOutput{Session: s}, nil
}

// SignIn is the use case for password sign-in.
type SignIn struct {
	identity domain.IdentityService
	logger   domain.Logger
}

// NewSignIn creates a new SignIn use case.
func NewSignIn(identity domain.IdentityService, logger domain.Logger) *SignIn {
	return &SignIn{identity: identity, logger: logger}
}

// Execute signs in. Empty credentials are rejected without a request.
func (uc *SignIn) Execute(ctx context.Context, in CredentialsInput) (*SessionOutput, error) {
	if err := in.validate(); err != nil {
		return nil, domain.NewError(domain.KindAuth, "sign in", err)
	}
	s, err := uc.identity.SignIn(ctx, strings.TrimSpace(in.Email), in.Password)
	if err != nil {
		return nil, domain.NewError(domain.KindAuth, "sign in", err)
	}
	uc.logger.Info(catAuth, "signed in as "+s.Email())
	return &SessionOutput{Session: s}, nil
}

// SignUp is the use case for registering a user.
type SignUp struct {
	identity domain.IdentityService
	logger   domain.Logger
}

// NewSignUp creates a new SignUp use case.
func NewSignUp(identity domain.IdentityService, logger domain.Logger) *SignUp {
	return &SignUp{identity: identity, logger: logger}
}

// Execute registers a user. A nil session in the output means the
// backend requires confirmation before the first sign-in.
func (uc *SignUp) Execute(ctx context.Context, in CredentialsInput) (*SessionOutput, error) {
	if err := in.validate(); err != nil {
		return nil, domain.NewError(domain.KindAuth, "sign up", err)
	}
	email := strings.TrimSpace(in.Email)
	s, err := uc.identity.SignUp(ctx, email, in.Password)
	if err != nil {
		return nil, domain.NewError(domain.KindAuth, "sign up", err)
	}
	if s == nil {
		uc.logger.Info(catAuth, "signed up "+email+", confirmation pending")
	} else {
		uc.logger.Info(catAuth, "signed up as "+s.Email())
	}
	return &SessionOutput{Session: s}, nil
}

// SignOut is the use case for terminating the session.
type SignOut struct {
	identity domain.IdentityService
	logger   domain.Logger
}

// NewSignOut creates a new SignOut use case.
func NewSignOut(identity domain.IdentityService, logger domain.Logger) *SignOut {
	return &SignOut{identity: identity, logger: logger}
}

// Execute requests termination. Local state is cleared by the
// SIGNED_OUT event, not here.
func (uc *SignOut) Execute(ctx context.Context, _ struct{}) (*struct{}, error) {
	if err := uc.identity.SignOut(ctx); err != nil {
		return nil, domain.NewError(domain.KindAuth, "sign out", err)
	}
	uc.logger.Info(catAuth, "signed out")
	return &struct{}{}, nil
}
