package services

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/techagentng/ecodenuncia/errors"
	"github.com/techagentng/ecodenuncia/models"
	"github.com/techagentng/ecodenuncia/session"
)

type DenunciaPage = models.Page[models.Denuncia]

const (
	msgAcessoRestrito        = "Acesso restrito a agentes e administradores"
	msgLocalizacaoRegiao     = "Informe a localização da região"
	msgDenunciaNaoEncontrada = "Denúncia não encontrada"
)

type DenunciaService interface {
	CreateDenuncia(ctx context.Context, draft *models.DenunciaCriacao) (*models.Denuncia, error)
	ListMine(ctx context.Context, filter models.Filter, page, size int) (*DenunciaPage, error)
	ListAll(ctx context.Context, page, size int, status models.DenunciaStatus, localizacao string) (*DenunciaPage, error)
	GetDenuncia(ctx context.Context, id int64) (*models.Denuncia, error)
	UpdateStatus(ctx context.Context, id int64, update *models.DenunciaStatusUpdate) (*models.Denuncia, error)
	ListByRegion(ctx context.Context, localizacao string, page, size int) (*DenunciaPage, error)
}

type denunciaService struct {
	backend Backend
	session *session.Store
	logger  *logrus.Logger
}

// NewDenunciaService instantiates a DenunciaService
func NewDenunciaService(backend Backend, store *session.Store, logger *logrus.Logger) DenunciaService {
	return &denunciaService{
		backend: backend,
		session: store,
		logger:  logger,
	}
}

func (s *denunciaService) CreateDenuncia(ctx context.Context, draft *models.DenunciaCriacao) (*models.Denuncia, error) {
	var created models.Denuncia
	if err := s.backend.Post(ctx, "/denuncias", draft, &created); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"denuncia_id": created.ID, "status": created.Status}).Info("denuncia created")
	return &created, nil
}

func (s *denunciaService) ListMine(ctx context.Context, filter models.Filter, page, size int) (*DenunciaPage, error) {
	if err := filter.Normalize(); err != nil {
		return nil, errors.Validation(err.Error())
	}
	var result DenunciaPage
	if err := s.backend.Get(ctx, "/denuncias/minhas", filter.Values(page, size), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *denunciaService) ListAll(ctx context.Context, page, size int, status models.DenunciaStatus, localizacao string) (*DenunciaPage, error) {
	if !s.session.Role().CanReview() {
		return nil, errors.Forbidden(msgAcessoRestrito)
	}
	status, err := models.ParseStatus(string(status))
	if err != nil {
		return nil, errors.Validation(err.Error())
	}
	q := pageQuery(page, size)
	if status != "" {
		q.Set("status", string(status))
	}
	if loc := strings.TrimSpace(localizacao); loc != "" {
		q.Set("localizacao", loc)
	}
	var result DenunciaPage
	if err := s.backend.Get(ctx, "/denuncias", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *denunciaService) GetDenuncia(ctx context.Context, id int64) (*models.Denuncia, error) {
	var d models.Denuncia
	if err := s.backend.Get(ctx, "/denuncias/"+strconv.FormatInt(id, 10), nil, &d); err != nil {
		return nil, withFallback(err, msgDenunciaNaoEncontrada)
	}
	return &d, nil
}

// UpdateStatus asks the backend to move a denúncia to another status. Only agents
// and admins may call it; the backend decides whether the transition is allowed.
func (s *denunciaService) UpdateStatus(ctx context.Context, id int64, update *models.DenunciaStatusUpdate) (*models.Denuncia, error) {
	if !s.session.Role().CanReview() {
		return nil, errors.Forbidden(msgAcessoRestrito)
	}
	if msg := models.Validate(update); msg != "" {
		return nil, errors.Validation(msg)
	}
	if !update.Status.Valid() {
		return nil, errors.Validation("status inválido: " + string(update.Status))
	}

	var d models.Denuncia
	path := "/denuncias/" + strconv.FormatInt(id, 10) + "/status"
	if err := s.backend.Put(ctx, path, update, &d); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"denuncia_id": id, "status": update.Status}).Info("denuncia status changed")
	return &d, nil
}

func (s *denunciaService) ListByRegion(ctx context.Context, localizacao string, page, size int) (*DenunciaPage, error) {
	localizacao = strings.TrimSpace(localizacao)
	if localizacao == "" {
		return nil, errors.Validation(msgLocalizacaoRegiao)
	}
	q := pageQuery(page, size)
	q.Set("localizacao", localizacao)
	var result DenunciaPage
	if err := s.backend.Get(ctx, "/denuncias/regiao", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return q
}
