package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DenunciaStatus is advanced only by the backend; the client displays it and, for
// agents and admins, requests changes through the status endpoint.
type DenunciaStatus string

const (
	StatusPendente         DenunciaStatus = "PENDENTE"
	StatusEmAnalise        DenunciaStatus = "EM_ANALISE"
	StatusAprovada         DenunciaStatus = "APROVADA"
	StatusACaminhoVistoria DenunciaStatus = "A_CAMINHO_VISTORIA"
	StatusEmExecucao       DenunciaStatus = "EM_EXECUCAO"
	StatusResolvida        DenunciaStatus = "RESOLVIDA"
	StatusRejeitada        DenunciaStatus = "REJEITADA"
)

var AllStatuses = []DenunciaStatus{
	StatusPendente,
	StatusEmAnalise,
	StatusAprovada,
	StatusACaminhoVistoria,
	StatusEmExecucao,
	StatusResolvida,
	StatusRejeitada,
}

var statusLabels = map[DenunciaStatus]string{
	StatusPendente:         "Pendente",
	StatusEmAnalise:        "Em Análise",
	StatusAprovada:         "Aprovada",
	StatusACaminhoVistoria: "A Caminho da Vistoria",
	StatusEmExecucao:       "Em Execução",
	StatusResolvida:        "Resolvida",
	StatusRejeitada:        "Rejeitada",
}

func (s DenunciaStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the pt-BR display name, or the raw value for unknown statuses.
func (s DenunciaStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// ParseStatus accepts the wire value in any case; "" and "all" mean no status filter.
func ParseStatus(raw string) (DenunciaStatus, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" || raw == "ALL" {
		return "", nil
	}
	s := DenunciaStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("status inválido: %s", raw)
	}
	return s, nil
}

type Denuncia struct {
	ID                 int64          `json:"id"`
	Descricao          string         `json:"descricao"`
	Localizacao        string         `json:"localizacao"`
	Latitude           *float64       `json:"latitude,omitempty"`
	Longitude          *float64       `json:"longitude,omitempty"`
	FotoURL            string         `json:"fotoUrl,omitempty"`
	DataCriacao        Timestamp      `json:"dataCriacao"`
	Status             DenunciaStatus `json:"status"`
	FeedbackAutoridade string         `json:"feedbackAutoridade,omitempty"`
	UsuarioID          int64          `json:"usuarioId"`
	UsuarioNome        string         `json:"usuarioNome"`
}

// DenunciaCriacao is the pre-submission draft. It belongs to one form session.
type DenunciaCriacao struct {
	Descricao   string   `json:"descricao" conform:"trim" validate:"required"`
	Localizacao string   `json:"localizacao" conform:"trim" validate:"required"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	FotoURL     string   `json:"fotoUrl,omitempty" conform:"trim" validate:"omitempty,url"`
}

// HasCoordinates reports whether both halves of the coordinate pair are set.
func (d DenunciaCriacao) HasCoordinates() bool {
	return d.Latitude != nil && d.Longitude != nil
}

type DenunciaStatusUpdate struct {
	Status             DenunciaStatus `json:"status" validate:"required"`
	FeedbackAutoridade string         `json:"feedbackAutoridade,omitempty" conform:"trim"`
}

// Timestamp decodes the backend's creation dates, which may omit the zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if raw == "null" || raw == `""` {
		t.Time = time.Time{}
		return nil
	}
	s, err := strconv.Unquote(raw)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// Float64 returns a pointer to v, for the optional coordinate fields.
func Float64(v float64) *float64 {
	return &v
}
