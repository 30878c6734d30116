package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techagentng/ecodenuncia/errors"
)

// MsgErroGenerico replaces errors that carry no user-facing text.
const MsgErroGenerico = "Erro ao processar a requisição"

// JSON writes the standard envelope: message, data, errors and status text.
func JSON(c *gin.Context, message string, status int, data interface{}, err error) {
	errMessage := ""
	if err != nil {
		errMessage = errors.Message(err, MsgErroGenerico)
	}
	responsedata := gin.H{
		"message": message,
		"data":    data,
		"errors":  errMessage,
		"status":  http.StatusText(status),
	}

	c.JSON(status, responsedata)
}
