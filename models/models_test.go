package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_TrimsAndReportsFirstField(t *testing.T) {
	d := &DenunciaCriacao{Descricao: "   ", Localizacao: " Rua A "}
	assert.Equal(t, "A descrição é obrigatória", Validate(d))
	assert.Equal(t, "Rua A", d.Localizacao)

	d.Descricao = " Lixo na calçada "
	assert.Equal(t, "", Validate(d))
	assert.Equal(t, "Lixo na calçada", d.Descricao)

	d.FotoURL = "não é url"
	assert.Equal(t, "URL da foto inválida", Validate(d))
}

func TestValidate_Login(t *testing.T) {
	req := &LoginRequest{Email: "  ANA@X.COM ", Senha: "123456"}
	assert.Equal(t, "", Validate(req))
	assert.Equal(t, "ana@x.com", req.Email)

	assert.Equal(t, "Senha é obrigatória", Validate(&LoginRequest{Email: "a@x.com"}))
}

func TestRegisterForm_Normalize(t *testing.T) {
	tests := []struct {
		name string
		form RegisterForm
		want error
		role Role
	}{
		{"mismatch", RegisterForm{RegisterRequest{Senha: "123456"}, "654321"}, ErrSenhasDiferentes, ""},
		{"short", RegisterForm{RegisterRequest{Senha: "123"}, "123"}, ErrSenhaCurta, ""},
		{"default role", RegisterForm{RegisterRequest{Senha: "123456"}, "123456"}, nil, RoleMorador},
		{"lowercase role", RegisterForm{RegisterRequest{Senha: "123456", Role: "agente"}, "123456"}, nil, RoleAgente},
		{"bad role", RegisterForm{RegisterRequest{Senha: "123456", Role: "PREFEITO"}, "123456"}, ErrRoleInvalida, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := tt.form
			err := form.Normalize()
			assert.Equal(t, tt.want, err)
			if err == nil {
				assert.Equal(t, tt.role, form.Role)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	f := DefaultFilter()
	require.NoError(t, f.Validate())

	f.DataInicio, f.DataFim = "2024-03-10", "2024-03-01"
	assert.EqualError(t, f.Validate(), "data fim anterior à data início")

	f.DataFim = "2024-03-10"
	f.Status = StatusEmAnalise
	f.Localizacao = "  Centro "
	require.NoError(t, f.Validate())

	v := f.Values(2, PageSize)
	assert.Equal(t, "2", v.Get("page"))
	assert.Equal(t, "10", v.Get("size"))
	assert.Equal(t, "EM_ANALISE", v.Get("status"))
	assert.Equal(t, "Centro", v.Get("localizacao"))
	assert.Equal(t, "dataCriacao", v.Get("sortBy"))
	assert.Equal(t, "desc", v.Get("sortDir"))

	assert.False(t, DefaultFilter().Values(0, 10).Has("status"))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("all")
	require.NoError(t, err)
	assert.Equal(t, DenunciaStatus(""), s)

	s, err = ParseStatus(" resolvida ")
	require.NoError(t, err)
	assert.Equal(t, StatusResolvida, s)
	assert.Equal(t, "Resolvida", s.Label())

	_, err = ParseStatus("ARQUIVADA")
	assert.Error(t, err)
	assert.Equal(t, "ARQUIVADA", DenunciaStatus("ARQUIVADA").Label())
}

func TestTimestamp_AcceptsBackendFormats(t *testing.T) {
	var d Denuncia
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"dataCriacao":"2024-05-01T10:30:00.123"}`), &d))
	assert.Equal(t, time.Date(2024, 5, 1, 10, 30, 0, 123000000, time.UTC), d.DataCriacao.Time)

	require.NoError(t, json.Unmarshal([]byte(`{"dataCriacao":null}`), &d))
	assert.True(t, d.DataCriacao.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"dataCriacao":"ontem"}`), &d))
}

func TestRole_Dashboard(t *testing.T) {
	assert.Equal(t, DashboardMoradorPath, RoleMorador.Dashboard())
	assert.Equal(t, DashboardAgentePath, RoleAgente.Dashboard())
	assert.Equal(t, DashboardAgentePath, RoleAdmin.Dashboard())
	assert.Equal(t, DashboardMoradorPath, Role("").Dashboard())
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Status: "all", Localizacao: "  Sé "}
	require.NoError(t, f.Normalize())
	assert.Equal(t, Filter{Localizacao: "Sé", SortBy: SortByDataCriacao, SortDir: SortDesc}, f)

	f = Filter{Status: "pendente"}
	require.NoError(t, f.Normalize())
	assert.Equal(t, StatusPendente, f.Status)

	f = Filter{Status: "ARQUIVADA"}
	assert.EqualError(t, f.Normalize(), "status inválido: ARQUIVADA")
}

func TestPage_Bounds(t *testing.T) {
	var none *Page[Denuncia]
	assert.True(t, none.Empty())
	assert.False(t, none.HasNext())

	p := &Page[Denuncia]{Content: []Denuncia{{ID: 1}}, TotalPages: 3, Number: 0}
	assert.False(t, p.Empty())
	assert.False(t, p.HasPrevious())
	assert.True(t, p.HasNext())
	assert.True(t, p.InRange(2))
	assert.False(t, p.InRange(3))
	assert.False(t, p.InRange(-1))

	p.Number = 2
	assert.True(t, p.HasPrevious())
	assert.False(t, p.HasNext())
}
