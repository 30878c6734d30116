package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techagentng/ecodenuncia/errors"
	"github.com/techagentng/ecodenuncia/models"
	"github.com/techagentng/ecodenuncia/server/response"
	"github.com/techagentng/ecodenuncia/services"
)

const msgRequisicaoInvalida = "Requisição inválida"

func decode(c *gin.Context, v interface{}) *errors.Error {
	if err := c.ShouldBindJSON(v); err != nil {
		return errors.Validation(msgRequisicaoInvalida)
	}
	return nil
}

type loginResponse struct {
	User     models.User `json:"user"`
	Redirect string      `json:"redirect"`
}

func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var loginRequest models.LoginRequest
		if err := decode(c, &loginRequest); err != nil {
			response.JSON(c, "", errors.ErrBadRequest.Status, nil, err)
			return
		}
		authResponse, err := s.AuthService.Login(c.Request.Context(), &loginRequest)
		if err != nil {
			response.JSON(c, "", errors.StatusOf(err), nil, err)
			return
		}
		response.JSON(c, "login successful", http.StatusOK, loginResponse{
			User:     authResponse.User(),
			Redirect: authResponse.Role.Dashboard(),
		}, nil)
	}
}

func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var form models.RegisterForm
		if err := decode(c, &form); err != nil {
			response.JSON(c, "", errors.ErrBadRequest.Status, nil, err)
			return
		}
		confirmation, err := s.AuthService.Register(c.Request.Context(), &form)
		if err != nil {
			response.JSON(c, "", errors.StatusOf(err), nil, err)
			return
		}
		s.Logger.WithField("backend", confirmation).Debug("registration confirmed")
		response.JSON(c, services.MsgRegistroSucesso, http.StatusCreated, gin.H{"redirect": models.LoginPath}, nil)
	}
}

func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.AuthService.Logout()
		response.JSON(c, "logout successful", http.StatusOK, gin.H{"redirect": models.LoginPath}, nil)
	}
}

func (s *Server) handleShowProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.AuthService.CurrentUser(c.Request.Context())
		if err != nil {
			response.JSON(c, "", errors.StatusOf(err), nil, err)
			return
		}
		response.JSON(c, "user details retrieved", http.StatusOK, user, nil)
	}
}

func (s *Server) handleCurrentRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.JSON(c, "", http.StatusOK, s.Navigation.Current(), nil)
	}
}

func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.JSON(c, "ok", http.StatusOK, gin.H{
			"geocoder":  s.Geocoder.State().String(),
			"websocket": s.Navigation.ConnectedClients(),
		}, nil)
	}
}

type pageState struct {
	Route         string       `json:"route"`
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
}

func (s *Server) page(route string) pageState {
	p := pageState{Route: route, Authenticated: s.Session.Authenticated()}
	if user, ok := s.Session.User(); ok && p.Authenticated {
		p.User = &user
	}
	return p
}

func (s *Server) handlePage(route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		response.JSON(c, "", http.StatusOK, s.page(route), nil)
	}
}
