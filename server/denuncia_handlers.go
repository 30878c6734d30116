package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/techagentng/ecodenuncia/errors"
	"github.com/techagentng/ecodenuncia/models"
	"github.com/techagentng/ecodenuncia/server/response"
	"github.com/techagentng/ecodenuncia/services"
)

const (
	msgImagemAusente  = "Selecione uma imagem"
	msgIDInvalido     = "Identificador de denúncia inválido"
	msgPaginaInvalida = "Página inválida"
)

type dashboardMorador struct {
	pageState
	Historico services.ListingSnapshot `json:"historico"`
}

func (s *Server) handleDashboardMorador() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.JSON(c, "", http.StatusOK, dashboardMorador{
			pageState: s.page(models.DashboardMoradorPath),
			Historico: loadedSnapshot(c, s.Historico),
		}, nil)
	}
}

type dashboardAgente struct {
	pageState
	Painel   services.ListingSnapshot `json:"painel"`
	Statuses []statusOption           `json:"statuses"`
}

type statusOption struct {
	Value models.DenunciaStatus `json:"value"`
	Label string                `json:"label"`
}

func (s *Server) handleDashboardAgente() gin.HandlerFunc {
	return func(c *gin.Context) {
		options := make([]statusOption, 0, len(models.AllStatuses))
		for _, st := range models.AllStatuses {
			options = append(options, statusOption{Value: st, Label: st.Label()})
		}
		response.JSON(c, "", http.StatusOK, dashboardAgente{
			pageState: s.page(models.DashboardAgentePath),
			Painel:    loadedSnapshot(c, s.Painel),
			Statuses:  options,
		}, nil)
	}
}

type enviarDenunciaPage struct {
	pageState
	Formulario services.SubmissionState `json:"formulario"`
	Mapa       models.Location          `json:"mapa"`
}

func (s *Server) handleEnviarDenunciaPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.JSON(c, "", http.StatusOK, enviarDenunciaPage{
			pageState:  s.page(models.EnviarDenunciaPath),
			Formulario: s.Submission.Snapshot(),
			Mapa:       s.Locations.Selected(),
		}, nil)
	}
}

// loadedSnapshot triggers the first load of a listing that has never loaded.
func loadedSnapshot(c *gin.Context, engine *services.ListingEngine) services.ListingSnapshot {
	snap := engine.Snapshot()
	if snap.State == services.ListingIdle {
		snap = engine.Load(c.Request.Context(), 0)
	}
	return snap
}

func (s *Server) handleGetDraft() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.JSON(c, "", http.StatusOK, s.Submission.Snapshot(), nil)
	}
}

type draftUpdate struct {
	Descricao   *string `json:"descricao"`
	Localizacao *string `json:"localizacao"`
}

func (s *Server) handleUpdateDraft() gin.HandlerFunc {
	return func(c *gin.Context) {
		var update draftUpdate
		if err := decode(c, &update); err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}
		if update.Descricao != nil {
			s.Submission.SetDescricao(*update.Descricao)
		}
		if update.Localizacao != nil {
			s.Submission.SetLocalizacao(*update.Localizacao)
		}
		response.JSON(c, "", http.StatusOK, s.Submission.Snapshot(), nil)
	}
}

func (s *Server) handleUseSelectedLocation() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.Submission.UseLocation(s.Locations)
		response.JSON(c, "", http.StatusOK, s.Submission.Snapshot(), nil)
	}
}

func (s *Server) handleUploadImage() gin.HandlerFunc {
	return func(c *gin.Context) {
		file, fileHeader, err := c.Request.FormFile("image")
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.Validation(msgImagemAusente))
			return
		}
		defer file.Close()

		// oversized files are refused before their bytes are read
		image := models.ImageFile{
			Name:        fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Size:        fileHeader.Size,
		}
		if fileHeader.Size <= services.MaxImageSize {
			if image.Data, err = io.ReadAll(file); err != nil {
				response.JSON(c, "", http.StatusBadRequest, nil, errors.Validation(msgImagemAusente))
				return
			}
		}

		result := s.Submission.AttachImage(c.Request.Context(), image)
		if !result.OK() {
			err := result.Err()
			response.JSON(c, "", errors.StatusOf(err), s.Submission.Snapshot(), err)
			return
		}
		response.JSON(c, "", http.StatusOK, s.Submission.Snapshot(), nil)
	}
}

func (s *Server) handleRemoveImage() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.Submission.RemoveImage()
		response.JSON(c, "", http.StatusOK, s.Submission.Snapshot(), nil)
	}
}

func (s *Server) handleSubmitDenuncia() gin.HandlerFunc {
	return func(c *gin.Context) {
		created, err := s.Submission.Submit(c.Request.Context())
		if err != nil {
			status := errors.StatusOf(err)
			if errors.Is(err, services.ErrSubmissionInFlight) {
				status = http.StatusConflict
			}
			response.JSON(c, "", status, s.Submission.Snapshot(), err)
			return
		}
		response.JSON(c, services.MsgDenunciaEnviada, http.StatusCreated, gin.H{
			"denuncia": created,
			"redirect": models.DashboardMoradorPath,
		}, nil)
	}
}

func (s *Server) handleListingSnapshot(engine *services.ListingEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		response.JSON(c, "", http.StatusOK, loadedSnapshot(c, engine), nil)
	}
}

func (s *Server) handleSetFilters(engine *services.ListingEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.Filter
		if err := decode(c, &filter); err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}
		snap := engine.SetFilters(c.Request.Context(), filter)
		listingJSON(c, snap)
	}
}

func (s *Server) handleClearFilters(engine *services.ListingEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		listingJSON(c, engine.ClearFilters(c.Request.Context()))
	}
}

func (s *Server) handleGoToPage(engine *services.ListingEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := strconv.Atoi(c.Param("page"))
		if err != nil || page < 0 {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.Validation(msgPaginaInvalida))
			return
		}
		listingJSON(c, engine.GoToPage(c.Request.Context(), page))
	}
}

func listingJSON(c *gin.Context, snap services.ListingSnapshot) {
	if snap.State == services.ListingError {
		response.JSON(c, "", http.StatusBadGateway, snap, errors.Server(http.StatusBadGateway, snap.Error))
		return
	}
	response.JSON(c, "", http.StatusOK, snap, nil)
}

func (s *Server) handleGetDenuncia() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.Validation(msgIDInvalido))
			return
		}
		d, err := s.DenunciaService.GetDenuncia(c.Request.Context(), id)
		if err != nil {
			response.JSON(c, "", errors.StatusOf(err), nil, err)
			return
		}
		response.JSON(c, "", http.StatusOK, d, nil)
	}
}

func (s *Server) handleUpdateStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.Validation(msgIDInvalido))
			return
		}
		var update models.DenunciaStatusUpdate
		if err := decode(c, &update); err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}
		d, err := s.DenunciaService.UpdateStatus(c.Request.Context(), id, &update)
		if err != nil {
			response.JSON(c, "", errors.StatusOf(err), nil, err)
			return
		}
		response.JSON(c, "status updated", http.StatusOK, d, nil)
	}
}

func (s *Server) handleListByRegion() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
		result, err := s.DenunciaService.ListByRegion(c.Request.Context(), c.Query("localizacao"), page, models.PageSize)
		if err != nil {
			response.JSON(c, "", errors.StatusOf(err), nil, err)
			return
		}
		response.JSON(c, "", http.StatusOK, result, nil)
	}
}
