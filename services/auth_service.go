package services

import (
	"context"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/techagentng/ecodenuncia/errors"
	"github.com/techagentng/ecodenuncia/models"
	"github.com/techagentng/ecodenuncia/session"
)

const (
	MsgRegistroSucesso = "Usuário registrado com sucesso! Redirecionando para login..."
	msgLoginFalhou     = "Erro ao fazer login"
	msgRegistroFalhou  = "Erro ao registrar usuário"
	msgPerfilFalhou    = "Erro ao carregar o perfil"
)

// Backend is the subset of the HTTP adapter the services call.
type Backend interface {
	Get(ctx context.Context, path string, query url.Values, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
	Put(ctx context.Context, path string, body, out interface{}) error
}

// AuthService interface
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, form *models.RegisterForm) (string, error)
	CurrentUser(ctx context.Context) (*models.User, error)
	Logout()
}

type authService struct {
	backend    Backend
	session    *session.Store
	redirector *Redirector
	logger     *logrus.Logger
}

// NewAuthService instantiates an AuthService
func NewAuthService(backend Backend, store *session.Store, redirector *Redirector, logger *logrus.Logger) AuthService {
	return &authService{
		backend:    backend,
		session:    store,
		redirector: redirector,
		logger:     logger,
	}
}

// Login stores the returned token and user in the session and sends the user to
// the dashboard of their role.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if msg := models.Validate(req); msg != "" {
		return nil, errors.Validation(msg)
	}

	var resp models.AuthResponse
	if err := s.backend.Post(ctx, "/auth/login", req, &resp); err != nil {
		s.logger.WithError(err).WithField("email", req.Email).Info("login refused")
		return nil, withFallback(err, msgLoginFalhou)
	}

	s.session.Set(resp.Token, resp.User())
	s.logger.WithFields(logrus.Fields{"user_id": resp.ID, "role": resp.Role}).Info("logged in")
	s.redirector.Now(resp.Role.Dashboard())
	return &resp, nil
}

// Register creates the account and, after the confirmation delay, goes to the login page.
func (s *authService) Register(ctx context.Context, form *models.RegisterForm) (string, error) {
	if err := form.Normalize(); err != nil {
		return "", errors.Validation(err.Error())
	}
	if msg := models.Validate(form); msg != "" {
		return "", errors.Validation(msg)
	}

	var confirmation string
	if err := s.backend.Post(ctx, "/auth/registro", form.RegisterRequest, &confirmation); err != nil {
		return "", withFallback(err, msgRegistroFalhou)
	}
	s.logger.WithField("email", form.Email).Info("user registered")
	s.redirector.After(models.LoginPath)
	return confirmation, nil
}

func (s *authService) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := s.backend.Get(ctx, "/auth/me", nil, &user); err != nil {
		return nil, withFallback(err, msgPerfilFalhou)
	}
	return &user, nil
}

func (s *authService) Logout() {
	s.session.Clear()
	s.redirector.Now(models.LoginPath)
}

// withFallback gives err a user-facing message when the server supplied none.
func withFallback(err error, fallback string) error {
	e, ok := errors.As(err)
	if !ok {
		return errors.Server(errors.StatusOf(err), fallback)
	}
	if e.Message != "" {
		return e
	}
	return &errors.Error{Message: fallback, Status: e.Status, Kind: e.Kind}
}
