package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/techagentng/ecodenuncia/errors"
	"github.com/techagentng/ecodenuncia/models"
)

const msgCarregarFalhou = "Erro ao carregar denúncias"

type ListingState int

const (
	ListingIdle ListingState = iota
	ListingLoading
	ListingSuccess
	ListingError
)

func (s ListingState) String() string {
	switch s {
	case ListingIdle:
		return "idle"
	case ListingLoading:
		return "loading"
	case ListingSuccess:
		return "success"
	case ListingError:
		return "error"
	default:
		return fmt.Sprintf("ListingState(%d)", int(s))
	}
}

func (s ListingState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ListingState) UnmarshalText(text []byte) error {
	for _, st := range []ListingState{ListingIdle, ListingLoading, ListingSuccess, ListingError} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown listing state %q", text)
}

// PageFetcher loads one page for the given filter.
type PageFetcher func(ctx context.Context, filter models.Filter, page, size int) (*DenunciaPage, error)

// ListingSnapshot is what the listing renders.
type ListingSnapshot struct {
	State         ListingState      `json:"state"`
	Filter        models.Filter     `json:"filter"`
	Page          int               `json:"page"`
	Size          int               `json:"size"`
	Items         []models.Denuncia `json:"items"`
	TotalElements int64             `json:"totalElements"`
	TotalPages    int               `json:"totalPages"`
	CanPrevious   bool              `json:"canPrevious"`
	CanNext       bool              `json:"canNext"`
	Error         string            `json:"error,omitempty"`
}

// ListingEngine keeps the filter, page and last result of a paginated listing.
// Every load takes a sequence number; a response that is not for the latest
// load is dropped, so a slow early response never overwrites a newer one.
type ListingEngine struct {
	fetch  PageFetcher
	size   int
	logger *logrus.Logger

	mu     sync.Mutex
	filter models.Filter
	page   int
	seq    uint64
	state  ListingState
	result *DenunciaPage
	errMsg string
}

func NewListingEngine(fetch PageFetcher, logger *logrus.Logger) *ListingEngine {
	return &ListingEngine{
		fetch:  fetch,
		size:   models.PageSize,
		logger: logger,
		filter: models.DefaultFilter(),
	}
}

// SetFilters replaces the whole filter, goes back to the first page and reloads once.
// A filter that does not normalize is refused without a fetch.
func (e *ListingEngine) SetFilters(ctx context.Context, filter models.Filter) ListingSnapshot {
	return e.update(ctx, func(f *models.Filter) { *f = filter })
}

func (e *ListingEngine) ClearFilters(ctx context.Context) ListingSnapshot {
	return e.SetFilters(ctx, models.DefaultFilter())
}

func (e *ListingEngine) SetStatus(ctx context.Context, status models.DenunciaStatus) ListingSnapshot {
	return e.update(ctx, func(f *models.Filter) { f.Status = status })
}

func (e *ListingEngine) SetLocalizacao(ctx context.Context, localizacao string) ListingSnapshot {
	return e.update(ctx, func(f *models.Filter) { f.Localizacao = localizacao })
}

func (e *ListingEngine) SetPeriodo(ctx context.Context, dataInicio, dataFim string) ListingSnapshot {
	return e.update(ctx, func(f *models.Filter) { f.DataInicio, f.DataFim = dataInicio, dataFim })
}

func (e *ListingEngine) SetSort(ctx context.Context, by models.SortField, dir models.SortDir) ListingSnapshot {
	return e.update(ctx, func(f *models.Filter) { f.SortBy, f.SortDir = by, dir })
}

// update applies change and takes the page-0 sequence number under one lock.
func (e *ListingEngine) update(ctx context.Context, change func(*models.Filter)) ListingSnapshot {
	e.mu.Lock()
	f := e.filter
	change(&f)
	if err := f.Normalize(); err != nil {
		defer e.mu.Unlock()
		e.seq++
		e.state = ListingError
		e.errMsg = err.Error()
		return e.snapshotLocked()
	}
	e.filter = f
	seq, filter := e.beginLocked(0)
	e.mu.Unlock()
	return e.finish(ctx, seq, filter, 0)
}

// GoToPage loads page n with the current filter. Bounds are left to the caller,
// see CanPrevious and CanNext.
func (e *ListingEngine) GoToPage(ctx context.Context, n int) ListingSnapshot {
	return e.Load(ctx, n)
}

func (e *ListingEngine) Load(ctx context.Context, page int) ListingSnapshot {
	e.mu.Lock()
	seq, filter := e.beginLocked(page)
	e.mu.Unlock()
	return e.finish(ctx, seq, filter, page)
}

func (e *ListingEngine) beginLocked(page int) (uint64, models.Filter) {
	e.seq++
	e.page = page
	e.state = ListingLoading
	e.errMsg = ""
	return e.seq, e.filter
}

func (e *ListingEngine) finish(ctx context.Context, seq uint64, filter models.Filter, page int) ListingSnapshot {
	result, err := e.fetch(ctx, filter, page, e.size)

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.seq {
		e.logger.WithFields(logrus.Fields{"seq": seq, "latest": e.seq}).Debug("discarding stale listing response")
		return e.snapshotLocked()
	}
	if err != nil {
		e.logger.WithError(err).WithField("page", page).Warn("listing load failed")
		e.state = ListingError
		e.errMsg = errors.Message(err, msgCarregarFalhou)
		return e.snapshotLocked()
	}
	if result == nil {
		result = &DenunciaPage{Number: page}
	}
	e.state = ListingSuccess
	e.result = result
	e.page = result.Number
	return e.snapshotLocked()
}

func (e *ListingEngine) CanPrevious() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canPreviousLocked()
}

func (e *ListingEngine) CanNext() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canNextLocked()
}

// The bounds come from the last page the backend served.
func (e *ListingEngine) canPreviousLocked() bool {
	return e.result.HasPrevious()
}

func (e *ListingEngine) canNextLocked() bool {
	return e.result.HasNext()
}

func (e *ListingEngine) Snapshot() ListingSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *ListingEngine) snapshotLocked() ListingSnapshot {
	s := ListingSnapshot{
		State:       e.state,
		Filter:      e.filter,
		Page:        e.page,
		Size:        e.size,
		Items:       []models.Denuncia{},
		CanPrevious: e.canPreviousLocked(),
		CanNext:     e.canNextLocked(),
		Error:       e.errMsg,
	}
	if e.result != nil {
		if !e.result.Empty() {
			s.Items = e.result.Content
		}
		s.TotalElements = e.result.TotalElements
		s.TotalPages = e.result.TotalPages
	}
	return s
}
