package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/ecodenuncia/errors"
)

func render(t *testing.T, status int, err error) map[string]interface{} {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	JSON(c, "", status, nil, err)
	require.Equal(t, status, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJSON_Envelope(t *testing.T) {
	body := render(t, http.StatusOK, nil)
	assert.Equal(t, "", body["errors"])
	assert.Equal(t, "OK", body["status"])
}

func TestJSON_KeepsUserFacingMessage(t *testing.T) {
	body := render(t, http.StatusBadRequest, errors.Validation("Descrição é obrigatória"))
	assert.Equal(t, "Descrição é obrigatória", body["errors"])
	assert.Equal(t, "Bad Request", body["status"])
}

func TestJSON_ErrorsWithoutMessageUseGenericText(t *testing.T) {
	body := render(t, http.StatusNotFound, errors.Server(http.StatusNotFound, ""))
	assert.Equal(t, MsgErroGenerico, body["errors"])

	body = render(t, http.StatusInternalServerError, fmt.Errorf("dial tcp: connection refused"))
	assert.Equal(t, MsgErroGenerico, body["errors"])
}
