package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type SortField string

const (
	SortByDataCriacao SortField = "dataCriacao"
	SortByStatus      SortField = "status"
	SortByLocalizacao SortField = "localizacao"
)

type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

const (
	// PageSize is fixed for the paginated history and dashboard listings.
	PageSize   = 10
	DateLayout = "2006-01-02"
)

func (f SortField) Valid() bool {
	switch f {
	case SortByDataCriacao, SortByStatus, SortByLocalizacao:
		return true
	}
	return false
}

func (d SortDir) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// Filter is the listing's server-driven filter and sort state. Dates are inclusive
// YYYY-MM-DD strings; empty fields are not sent.
type Filter struct {
	Status      DenunciaStatus `json:"status" form:"status"`
	Localizacao string         `json:"localizacao" form:"localizacao"`
	DataInicio  string         `json:"dataInicio" form:"dataInicio"`
	DataFim     string         `json:"dataFim" form:"dataFim"`
	SortBy      SortField      `json:"sortBy" form:"sortBy"`
	SortDir     SortDir        `json:"sortDir" form:"sortDir"`
}

func DefaultFilter() Filter {
	return Filter{SortBy: SortByDataCriacao, SortDir: SortDesc}
}

// Normalize fills the default sort and maps the status through ParseStatus, so
// "all" and "" both mean no status filter. It returns the Validate result.
func (f *Filter) Normalize() error {
	if f.SortBy == "" {
		f.SortBy = SortByDataCriacao
	}
	if f.SortDir == "" {
		f.SortDir = SortDesc
	}
	status, err := ParseStatus(string(f.Status))
	if err != nil {
		return err
	}
	f.Status = status
	f.Localizacao = strings.TrimSpace(f.Localizacao)
	return f.Validate()
}

func (f Filter) Validate() error {
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("status inválido: %s", f.Status)
	}
	if !f.SortBy.Valid() {
		return fmt.Errorf("ordenação inválida: %s", f.SortBy)
	}
	if !f.SortDir.Valid() {
		return fmt.Errorf("direção de ordenação inválida: %s", f.SortDir)
	}
	var inicio, fim time.Time
	var err error
	if f.DataInicio != "" {
		if inicio, err = time.Parse(DateLayout, f.DataInicio); err != nil {
			return fmt.Errorf("data início inválida: %s", f.DataInicio)
		}
	}
	if f.DataFim != "" {
		if fim, err = time.Parse(DateLayout, f.DataFim); err != nil {
			return fmt.Errorf("data fim inválida: %s", f.DataFim)
		}
	}
	if !inicio.IsZero() && !fim.IsZero() && fim.Before(inicio) {
		return fmt.Errorf("data fim anterior à data início")
	}
	return nil
}

// Values encodes the filter plus paging as the backend's query parameters.
func (f Filter) Values(page, size int) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("size", strconv.Itoa(size))
	v.Set("sortBy", string(f.SortBy))
	v.Set("sortDir", string(f.SortDir))
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	if loc := strings.TrimSpace(f.Localizacao); loc != "" {
		v.Set("localizacao", loc)
	}
	if f.DataInicio != "" {
		v.Set("dataInicio", f.DataInicio)
	}
	if f.DataFim != "" {
		v.Set("dataFim", f.DataFim)
	}
	return v
}
