package models

import (
	"errors"
	"strings"

	goval "github.com/go-passwd/validator"
)

// User is the profile the backend returns for the logged-in account.
type User struct {
	ID    int64  `json:"id"`
	Nome  string `json:"nome"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type LoginRequest struct {
	Email string `json:"email" conform:"trim,lower" validate:"required,email"`
	Senha string `json:"senha" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	ID    int64  `json:"id"`
	Nome  string `json:"nome"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (a AuthResponse) User() User {
	return User{ID: a.ID, Nome: a.Nome, Email: a.Email, Role: a.Role}
}

type RegisterRequest struct {
	Nome  string `json:"nome" conform:"trim" validate:"required"`
	Email string `json:"email" conform:"trim,lower" validate:"required,email"`
	Senha string `json:"senha" validate:"required"`
	Role  Role   `json:"role,omitempty"`
}

// RegisterForm is what the registration page collects; only the embedded request is sent.
type RegisterForm struct {
	RegisterRequest
	ConfirmacaoSenha string `json:"confirmacaoSenha"`
}

var (
	ErrSenhasDiferentes = errors.New("As senhas não coincidem")
	ErrSenhaCurta       = errors.New("A senha deve ter pelo menos 6 caracteres")
	ErrSenhaLonga       = errors.New("A senha deve ter no máximo 64 caracteres")
	ErrRoleInvalida     = errors.New("Perfil de usuário inválido")
)

func ValidatePassword(password string) error {
	passwordValidator := goval.New(goval.MinLength(6, ErrSenhaCurta),
		goval.MaxLength(64, ErrSenhaLonga))
	return passwordValidator.Validate(password)
}

// Normalize fills the default role and checks the form in the order the page reports errors.
func (f *RegisterForm) Normalize() error {
	if f.Senha != f.ConfirmacaoSenha {
		return ErrSenhasDiferentes
	}
	if err := ValidatePassword(f.Senha); err != nil {
		return err
	}
	f.Role = Role(strings.ToUpper(string(f.Role)))
	if f.Role == "" {
		f.Role = RoleMorador
	}
	if !f.Role.Valid() {
		return ErrRoleInvalida
	}
	return nil
}
