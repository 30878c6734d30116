package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/techagentng/ecodenuncia/errors"
	"github.com/techagentng/ecodenuncia/models"
	"github.com/techagentng/ecodenuncia/server/response"
)

const msgCoordenadasInvalidas = "Coordenadas inválidas"

type mapState struct {
	Selected models.Location `json:"selected"`
	Geocoder string          `json:"geocoder"`
}

type coordinatesRequest struct {
	Lat float64 `json:"lat" binding:"latitude"`
	Lng float64 `json:"lng" binding:"longitude"`
}

type addressRequest struct {
	Endereco string `json:"endereco"`
}

type selectionResponse struct {
	Selected models.Location      `json:"selected"`
	Result   models.GeocodeResult `json:"result"`
}

func (s *Server) handleGetMap() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.JSON(c, "", http.StatusOK, mapState{
			Selected: s.Locations.Selected(),
			Geocoder: s.Geocoder.State().String(),
		}, nil)
	}
}

func (s *Server) handleSelectCoordinates() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req coordinatesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.Validation(msgCoordenadasInvalidas))
			return
		}
		selected, result := s.Locations.SelectCoordinates(c.Request.Context(), req.Lat, req.Lng)
		geocodeJSON(c, selectionResponse{Selected: selected, Result: result}, result)
	}
}

// handleSearchAddress ignores blank searches and leaves the selection untouched.
func (s *Server) handleSearchAddress() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addressRequest
		if err := decode(c, &req); err != nil {
			response.JSON(c, "", err.Status, nil, err)
			return
		}
		selected, result, searched := s.Locations.SearchAddress(c.Request.Context(), req.Endereco)
		if !searched {
			response.JSON(c, "", http.StatusOK, selectionResponse{Selected: selected}, nil)
			return
		}
		geocodeJSON(c, selectionResponse{Selected: selected, Result: result}, result)
	}
}

func (s *Server) handleResolveAddress() gin.HandlerFunc {
	return func(c *gin.Context) {
		result := s.Geocoder.ResolveAddress(c.Request.Context(), c.Query("endereco"))
		geocodeJSON(c, result, result)
	}
}

func (s *Server) handleResolveCoordinates() gin.HandlerFunc {
	return func(c *gin.Context) {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, errors.Validation(msgCoordenadasInvalidas))
			return
		}
		result := s.Geocoder.ResolveCoordinates(c.Request.Context(), lat, lng)
		geocodeJSON(c, result, result)
	}
}

// geocodeJSON maps the lookup outcome to a status: not found is a normal answer,
// provider trouble is a bad gateway and an uninitialized geocoder is unavailable.
func geocodeJSON(c *gin.Context, data interface{}, result models.GeocodeResult) {
	switch result.Status {
	case models.GeocodeProviderError:
		response.JSON(c, "", http.StatusBadGateway, data, errors.Provider(result.Message))
	case models.GeocodeNotReady:
		response.JSON(c, "", http.StatusServiceUnavailable, data, errors.New(result.Message, http.StatusServiceUnavailable))
	default:
		response.JSON(c, result.Message, http.StatusOK, data, nil)
	}
}
