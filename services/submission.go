package services

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/techagentng/ecodenuncia/errors"
	"github.com/techagentng/ecodenuncia/models"
)

const (
	MsgDenunciaEnviada = "Denúncia enviada com sucesso!"
	msgEnvioFalhou     = "Erro ao enviar denúncia"
)

// ErrSubmissionInFlight is returned by Submit while an earlier submit is still running.
var ErrSubmissionInFlight = errors.Validation("A denúncia já está sendo enviada")

// SubmissionState is what the submission page renders.
type SubmissionState struct {
	Draft    models.DenunciaCriacao `json:"draft"`
	Busy     bool                   `json:"busy"`
	Error    string                 `json:"error,omitempty"`
	Success  string                 `json:"success,omitempty"`
	Uploader UploaderState          `json:"uploader"`
}

// SubmissionWorkflow owns one report draft from first keystroke to the
// redirect after a successful submit.
type SubmissionWorkflow struct {
	denuncias  DenunciaService
	uploader   *Uploader
	redirector *Redirector
	logger     *logrus.Logger

	busy atomic.Bool

	mu      sync.Mutex
	draft   models.DenunciaCriacao
	errMsg  string
	success string
}

func NewSubmissionWorkflow(denuncias DenunciaService, uploader *Uploader, redirector *Redirector, logger *logrus.Logger) *SubmissionWorkflow {
	return &SubmissionWorkflow{
		denuncias:  denuncias,
		uploader:   uploader,
		redirector: redirector,
		logger:     logger,
	}
}

func (w *SubmissionWorkflow) SetDescricao(descricao string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Descricao = descricao
}

func (w *SubmissionWorkflow) SetLocalizacao(localizacao string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.Localizacao = localizacao
}

// SetLocation takes a map selection: its address becomes the localização text.
// A selection without an address keeps the text already typed.
func (w *SubmissionWorkflow) SetLocation(loc models.Location) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if loc.Address != "" {
		w.draft.Localizacao = loc.Address
	}
	w.draft.Latitude = models.Float64(loc.Lat)
	w.draft.Longitude = models.Float64(loc.Lng)
}

func (w *SubmissionWorkflow) SetFotoURL(url string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft.FotoURL = url
}

// AttachImage uploads file and, on success, puts its URL on the draft.
func (w *SubmissionWorkflow) AttachImage(ctx context.Context, file models.ImageFile) models.UploadResult {
	result := w.uploader.Upload(ctx, file)
	if result.OK() {
		w.SetFotoURL(result.URL)
	}
	return result
}

func (w *SubmissionWorkflow) RemoveImage() {
	w.uploader.Remove()
	w.SetFotoURL("")
}

// UseLocation copies the selector's current location into the draft.
func (w *SubmissionWorkflow) UseLocation(selector *LocationSelector) models.Location {
	loc := selector.Selected()
	w.SetLocation(loc)
	return loc
}

// Submit validates the draft and sends it. Nothing goes over the network when
// validation fails. The draft survives a failed submit and is discarded on success.
func (w *SubmissionWorkflow) Submit(ctx context.Context) (*models.Denuncia, error) {
	if !w.busy.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}
	defer w.busy.Store(false)

	w.mu.Lock()
	w.errMsg, w.success = "", ""
	draft := w.draft
	w.mu.Unlock()

	if msg := models.Validate(&draft); msg != "" {
		w.setError(msg)
		return nil, errors.Validation(msg)
	}

	created, err := w.denuncias.CreateDenuncia(ctx, &draft)
	if err != nil {
		msg := errors.Message(err, msgEnvioFalhou)
		w.logger.WithError(err).Warn("denuncia submit failed")
		w.setError(msg)
		return nil, withFallback(err, msgEnvioFalhou)
	}

	w.mu.Lock()
	w.success = MsgDenunciaEnviada
	w.draft = models.DenunciaCriacao{}
	w.mu.Unlock()
	w.uploader.Remove()
	w.redirector.After(models.DashboardMoradorPath)
	return created, nil
}

func (w *SubmissionWorkflow) setError(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errMsg = msg
}

func (w *SubmissionWorkflow) Busy() bool {
	return w.busy.Load()
}

func (w *SubmissionWorkflow) Snapshot() SubmissionState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return SubmissionState{
		Draft:    w.draft,
		Busy:     w.busy.Load(),
		Error:    w.errMsg,
		Success:  w.success,
		Uploader: w.uploader.State(),
	}
}
