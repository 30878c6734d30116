package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techagentng/ecodenuncia/client"
	"github.com/techagentng/ecodenuncia/config"
	"github.com/techagentng/ecodenuncia/models"
	"github.com/techagentng/ecodenuncia/services"
	"github.com/techagentng/ecodenuncia/session"
)

type stubGeocoder struct{}

func (stubGeocoder) Init(ctx context.Context) error { return nil }
func (stubGeocoder) State() services.GeocoderState  { return services.GeocoderReady }
func (stubGeocoder) ResolveAddress(ctx context.Context, text string) models.GeocodeResult {
	if strings.Contains(text, "Paulista") {
		return models.GeocodeResult{Status: models.GeocodeFound, Latitude: -23.56, Longitude: -46.65, FormattedAddress: "Av. Paulista, São Paulo"}
	}
	return models.GeocodeResult{Status: models.GeocodeNotFound, Message: "Endereço não encontrado"}
}
func (stubGeocoder) ResolveCoordinates(ctx context.Context, lat, lng float64) models.GeocodeResult {
	return models.GeocodeResult{Status: models.GeocodeProviderError, Message: "Erro ao consultar o serviço de mapas"}
}

type stubStore struct{}

func (stubStore) Name() string { return "stub" }
func (stubStore) Store(ctx context.Context, file models.ImageFile) (string, error) {
	return "https://i.ibb.co/x/" + file.Name, nil
}

// fakeAPI plays the denúncia backend.
type fakeAPI struct {
	mu      sync.Mutex
	role    models.Role
	created []models.DenunciaCriacao
}

func (a *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/auth/login":
		json.NewEncoder(w).Encode(models.AuthResponse{Token: "opaque", ID: 5, Nome: "Bia", Email: "bia@x.com", Role: a.role})
	case r.URL.Path == "/api/denuncias" && r.Method == http.MethodPost:
		var d models.DenunciaCriacao
		json.NewDecoder(r.Body).Decode(&d)
		a.created = append(a.created, d)
		json.NewEncoder(w).Encode(models.Denuncia{ID: 99, Descricao: d.Descricao, Status: models.StatusPendente})
	case strings.HasPrefix(r.URL.Path, "/api/denuncias"):
		json.NewEncoder(w).Encode(services.DenunciaPage{Content: []models.Denuncia{{ID: 1}}, TotalElements: 1, TotalPages: 1})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  string          `json:"errors"`
}

func newTestServer(t *testing.T, role models.Role) (*Server, http.Handler, *fakeAPI) {
	t.Helper()
	t.Setenv("GIN_MODE", "test")
	gin.SetMode(gin.TestMode)

	api := &fakeAPI{role: role}
	backendSrv := httptest.NewServer(api)
	t.Cleanup(backendSrv.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	conf := &config.Config{Port: 3000, UploadRateLimit: 1}

	sess := session.New()
	nav := NewNavigationHub(logger, conf.AllowedOrigins())
	redirector := services.NewRedirector(nav, 0)
	backend := client.New(backendSrv.URL+"/api", sess, nav, logger)
	denuncias := services.NewDenunciaService(backend, sess, logger)
	uploader := services.NewUploader(services.NewMediaService(stubStore{}, logger), logger)
	geocoder := stubGeocoder{}

	s := &Server{
		Config:          conf,
		Logger:          logger,
		Session:         sess,
		Navigation:      nav,
		AuthService:     services.NewAuthService(backend, sess, redirector, logger),
		DenunciaService: denuncias,
		Geocoder:        geocoder,
		Locations:       services.NewLocationSelector(geocoder),
		Submission:      services.NewSubmissionWorkflow(denuncias, uploader, redirector, logger),
		Historico:       services.NewListingEngine(denuncias.ListMine, logger),
		Painel: services.NewListingEngine(func(ctx context.Context, f models.Filter, page, size int) (*services.DenunciaPage, error) {
			return denuncias.ListAll(ctx, page, size, f.Status, f.Localizacao)
		}, logger),
	}
	return s, s.setupRouter(), api
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func login(t *testing.T, h http.Handler) {
	t.Helper()
	w, _ := do(t, h, http.MethodPost, "/api/auth/login", models.LoginRequest{Email: "bia@x.com", Senha: "123456"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRootRedirectsToLogin(t *testing.T) {
	_, h, _ := newTestServer(t, models.RoleMorador)

	w, _ := do(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, models.LoginPath, w.Header().Get("Location"))
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	s, h, _ := newTestServer(t, models.RoleMorador)
	s.Navigation.Navigate(models.EnviarDenunciaPath)

	w, env := do(t, h, http.MethodGet, models.DashboardMoradorPath, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Faça login para continuar", env.Errors)
	assert.Equal(t, models.LoginPath, s.Navigation.Current().Path)
}

func TestLoginNavigatesToRoleDashboard(t *testing.T) {
	s, h, _ := newTestServer(t, models.RoleAgente)

	w, env := do(t, h, http.MethodPost, "/api/auth/login", models.LoginRequest{Email: "bia@x.com", Senha: "123456"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), models.DashboardAgentePath)
	assert.NotContains(t, string(env.Data), "opaque")
	assert.Equal(t, models.DashboardAgentePath, s.Navigation.Current().Path)
}

func TestWrongRoleIsSentToOwnDashboard(t *testing.T) {
	s, h, _ := newTestServer(t, models.RoleMorador)
	login(t, h)

	w, env := do(t, h, http.MethodGet, models.DashboardAgentePath, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotEmpty(t, env.Errors)
	assert.Equal(t, models.DashboardMoradorPath, s.Navigation.Current().Path)
}

func TestSubmitFlow(t *testing.T) {
	s, h, api := newTestServer(t, models.RoleMorador)
	login(t, h)

	w, env := do(t, h, http.MethodPost, "/api/denuncias", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "A descrição é obrigatória", env.Errors)

	w, _ = do(t, h, http.MethodPost, "/api/mapa/busca", gin.H{"endereco": "Av. Paulista"})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, h, http.MethodPost, "/api/denuncias/rascunho/localizacao", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, h, http.MethodPut, "/api/denuncias/rascunho", gin.H{"descricao": "Árvore caída"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, h, http.MethodPost, "/api/denuncias", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, services.MsgDenunciaEnviada, env.Message)

	require.Len(t, api.created, 1)
	assert.Equal(t, "Árvore caída", api.created[0].Descricao)
	assert.Equal(t, "Av. Paulista, São Paulo", api.created[0].Localizacao)
	assert.Equal(t, models.DashboardMoradorPath, s.Navigation.Current().Path)
}

func TestReverseGeocodeProviderErrorIsBadGateway(t *testing.T) {
	_, h, _ := newTestServer(t, models.RoleMorador)
	login(t, h)

	w, env := do(t, h, http.MethodPost, "/api/mapa/coordenadas", gin.H{"lat": -23.5, "lng": -46.6})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Erro ao consultar o serviço de mapas", env.Errors)
	assert.Contains(t, string(env.Data), "-23.5")
}

func uploadRequest(t *testing.T, name, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="image"; filename="` + name + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	part.Write(data)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/denuncias/rascunho/foto", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadIsValidatedAndRateLimited(t *testing.T) {
	_, h, _ := newTestServer(t, models.RoleMorador)
	login(t, h)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, uploadRequest(t, "nota.txt", "text/plain", []byte("oi")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), services.MsgApenasImagens)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, uploadRequest(t, "foto.png", "image/png", []byte{0x89, 'P', 'N', 'G'}))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestListingEndpoints(t *testing.T) {
	_, h, _ := newTestServer(t, models.RoleMorador)
	login(t, h)

	w, env := do(t, h, http.MethodGet, "/api/historico", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap services.ListingSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, services.ListingSuccess, snap.State)
	assert.Len(t, snap.Items, 1)

	w, _ = do(t, h, http.MethodGet, "/api/historico/pagina/-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, h, http.MethodPut, "/api/historico/filtros", models.Filter{Status: models.StatusPendente})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, models.SortByDataCriacao, snap.Filter.SortBy)
	assert.Equal(t, 0, snap.Page)

	w, env = do(t, h, http.MethodPut, "/api/historico/filtros", map[string]string{"status": "all"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, services.ListingSuccess, snap.State)
	assert.Empty(t, snap.Filter.Status)
}

func TestNavigationPushedOverWebSocket(t *testing.T) {
	s, h, _ := newTestServer(t, models.RoleMorador)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var event NavigationEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, models.LoginPath, event.Path)

	s.Navigation.Navigate(models.RegisterPath)
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, models.RegisterPath, event.Path)
}

func TestForeignOriginCannotUseSession(t *testing.T) {
	s, h, api := newTestServer(t, models.RoleMorador)
	login(t, h)

	for _, path := range []string{"/api/auth/me", "/api/historico"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	}

	req := httptest.NewRequest(http.MethodPost, "/api/denuncias", strings.NewReader("descricao=x"))
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, api.created)
	assert.True(t, s.Session.Authenticated())

	req = httptest.NewRequest(http.MethodGet, "/api/navegacao", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSOnlyEchoesAllowedOrigins(t *testing.T) {
	s, _, _ := newTestServer(t, models.RoleMorador)
	t.Setenv("GIN_MODE", "release")
	h := s.setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebSocketRefusesForeignOrigin(t *testing.T) {
	_, h, _ := newTestServer(t, models.RoleMorador)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	header := http.Header{"Origin": {"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestProfileFailureIsReportedInPortuguese(t *testing.T) {
	_, h, _ := newTestServer(t, models.RoleMorador)
	login(t, h)

	w, env := do(t, h, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Erro ao carregar o perfil", env.Errors)
	assert.NotContains(t, env.Errors, "status")
}
