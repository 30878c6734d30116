package server

import (
	"net/http"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/techagentng/ecodenuncia/errors"
	"github.com/techagentng/ecodenuncia/models"
	"github.com/techagentng/ecodenuncia/server/response"
)

const (
	msgLoginNecessario = "Faça login para continuar"
	msgSemPermissao    = "Você não tem permissão para acessar esta página"
	msgMuitosEnvios    = "Muitos envios de imagem. Tente novamente em instantes"
	msgOrigemNegada    = "Origem não permitida"
)

// restrictOrigins refuses browser requests from pages outside the allowed
// origins. The session lives in this process, so CORS alone would still let a
// foreign page trigger simple requests with it.
func restrictOrigins(origins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !originAllowed(origins, c.GetHeader("Origin")) {
			respondAndAbort(c, "", http.StatusForbidden, nil, errors.Forbidden(msgOrigemNegada))
			return
		}
		c.Next()
	}
}

// originAllowed admits requests without an Origin header, which browsers only
// omit for same-origin navigation and non-browser clients.
func originAllowed(origins []string, origin string) bool {
	if origin == "" {
		return true
	}
	origin = strings.TrimRight(origin, "/")
	for _, o := range origins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// Authorize requires a live session. An expired token is torn down the same way
// a 401 from the backend is.
func (s *Server) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.authenticate(c) {
			return
		}
		c.Next()
	}
}

func (s *Server) authenticate(c *gin.Context) bool {
	if _, ok := c.Get("user"); ok {
		return true
	}
	if !s.Session.Authenticated() {
		if s.Session.Clear() {
			s.Logger.Info("session token expired")
		}
		s.Navigation.Navigate(models.LoginPath)
		respondAndAbort(c, "", http.StatusUnauthorized, nil, errors.Auth(msgLoginNecessario))
		return false
	}

	user, _ := s.Session.User()
	c.Set("user", user)
	c.Set("userID", user.ID)
	c.Set("role", user.Role)
	return true
}

// requireRole admits the listed roles. Anyone else is sent to their own landing page.
func (s *Server) requireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.authenticate(c) {
			return
		}

		role := s.Session.Role()
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		s.Navigation.Navigate(role.Dashboard())
		respondAndAbort(c, "", http.StatusForbidden, nil, errors.Forbidden(msgSemPermissao))
	}
}

func limitRateForUploads(store ratelimit.Store) gin.HandlerFunc {
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			c.Header("Retry-After", time.Until(info.ResetTime).Round(time.Second).String())
			respondAndAbort(c, "", http.StatusTooManyRequests, nil, errors.New(msgMuitosEnvios, http.StatusTooManyRequests))
		},
		KeyFunc: keyFunc,
	})
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

// respondAndAbort calls response.JSON and aborts the Context
func respondAndAbort(c *gin.Context, message string, status int, data interface{}, e error) {
	response.JSON(c, message, status, data, e)
	c.Abort()
}
