package server

import (
	"fmt"
	"net/http"
	"os"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/techagentng/ecodenuncia/models"
)

func (s *Server) setupRouter() *gin.Engine {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()

	// LoggerWithFormatter middleware will write the logs to gin.DefaultWriter
	// By default gin.DefaultWriter = os.Stdout
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.Config.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = 32 << 20
	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: s.Config.UploadRateLimit,
	})
	limitUploads := limitRateForUploads(store)

	router.Use(restrictOrigins(s.Config.AllowedOrigins()))

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, models.LoginPath)
	})
	router.GET("/healthz", s.handleHealth())
	router.GET("/ws", s.Navigation.HandleWebSocket)

	// pages
	router.GET(models.LoginPath, s.handlePage(models.LoginPath))
	router.GET(models.RegisterPath, s.handlePage(models.RegisterPath))
	router.GET(models.DashboardMoradorPath, s.requireRole(models.RoleMorador), s.handleDashboardMorador())
	router.GET(models.EnviarDenunciaPath, s.requireRole(models.RoleMorador), s.handleEnviarDenunciaPage())
	router.GET(models.DashboardAgentePath, s.requireRole(models.RoleAgente, models.RoleAdmin), s.handleDashboardAgente())

	apirouter := router.Group("/api")
	apirouter.GET("/navegacao", s.handleCurrentRoute())
	apirouter.POST("/auth/login", s.handleLogin())
	apirouter.POST("/auth/registro", s.handleRegister())
	apirouter.POST("/auth/logout", s.handleLogout())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.GET("/auth/me", s.handleShowProfile())

	authorized.GET("/mapa", s.handleGetMap())
	authorized.POST("/mapa/coordenadas", s.handleSelectCoordinates())
	authorized.POST("/mapa/busca", s.handleSearchAddress())
	authorized.GET("/geocode", s.handleResolveAddress())
	authorized.GET("/geocode/reverso", s.handleResolveCoordinates())

	morador := authorized.Group("/")
	morador.Use(s.requireRole(models.RoleMorador))
	morador.GET("/denuncias/rascunho", s.handleGetDraft())
	morador.PUT("/denuncias/rascunho", s.handleUpdateDraft())
	morador.POST("/denuncias/rascunho/localizacao", s.handleUseSelectedLocation())
	morador.POST("/denuncias/rascunho/foto", limitUploads, s.handleUploadImage())
	morador.DELETE("/denuncias/rascunho/foto", s.handleRemoveImage())
	morador.POST("/denuncias", s.handleSubmitDenuncia())

	morador.GET("/historico", s.handleListingSnapshot(s.Historico))
	morador.PUT("/historico/filtros", s.handleSetFilters(s.Historico))
	morador.DELETE("/historico/filtros", s.handleClearFilters(s.Historico))
	morador.GET("/historico/pagina/:page", s.handleGoToPage(s.Historico))

	agente := authorized.Group("/")
	agente.Use(s.requireRole(models.RoleAgente, models.RoleAdmin))
	agente.GET("/painel", s.handleListingSnapshot(s.Painel))
	agente.PUT("/painel/filtros", s.handleSetFilters(s.Painel))
	agente.DELETE("/painel/filtros", s.handleClearFilters(s.Painel))
	agente.GET("/painel/pagina/:page", s.handleGoToPage(s.Painel))
	agente.PUT("/denuncias/:id/status", s.handleUpdateStatus())

	authorized.GET("/denuncias/regiao", s.handleListByRegion())
	authorized.GET("/denuncias/:id", s.handleGetDenuncia())
}
