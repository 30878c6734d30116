package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
	"github.com/sirupsen/logrus"
	"github.com/techagentng/ecodenuncia/db"
	"github.com/techagentng/ecodenuncia/errors"
	"github.com/techagentng/ecodenuncia/models"
)

const (
	MaxImageSize = 32 * 1024 * 1024 // 32 MB

	MsgArquivoGrande   = "Arquivo muito grande. Máximo permitido: 32MB"
	MsgApenasImagens   = "Por favor, selecione apenas arquivos de imagem"
	msgUploadEmCurso   = "Aguarde o envio da imagem atual"
	thumbnailMaxPixels = 200
)

// MediaService validates a picked image and hands it to the configured store.
type MediaService interface {
	Upload(ctx context.Context, file models.ImageFile) models.UploadResult
}

type mediaService struct {
	store  db.ImageStore
	logger *logrus.Logger
}

// NewMediaService instantiates a MediaService
func NewMediaService(store db.ImageStore, logger *logrus.Logger) MediaService {
	return &mediaService{store: store, logger: logger}
}

// Upload never touches the network when the file is too large or not an image.
func (m *mediaService) Upload(ctx context.Context, file models.ImageFile) models.UploadResult {
	if failure := ValidateImage(&file); failure != nil {
		return models.UploadResult{Failure: failure}
	}

	url, err := m.store.Store(ctx, file)
	if err != nil {
		m.logger.WithError(err).WithFields(logrus.Fields{
			"store": m.store.Name(),
			"file":  file.Name,
			"size":  file.Len(),
		}).Warn("image upload failed")
		kind := errors.KindOf(err)
		if kind != errors.KindTransport {
			kind = errors.KindProvider
		}
		return models.UploadFailed(kind, errors.Message(err, db.MsgUploadDesconhecido))
	}

	m.logger.WithFields(logrus.Fields{"store": m.store.Name(), "url": url}).Info("image uploaded")
	return models.UploadOK(url)
}

// ValidateImage checks size first, then type. A missing content type is sniffed
// from the bytes and written back to file.
func ValidateImage(file *models.ImageFile) *models.UploadFailure {
	if file.Len() > MaxImageSize {
		return &models.UploadFailure{Kind: errors.KindValidation, Message: MsgArquivoGrande}
	}
	if file.ContentType == "" && len(file.Data) > 0 {
		file.ContentType = mimetype.Detect(file.Data).String()
	}
	if !strings.HasPrefix(file.ContentType, "image/") {
		return &models.UploadFailure{Kind: errors.KindValidation, Message: MsgApenasImagens}
	}
	return nil
}

// UploaderState is what the upload widget renders.
type UploaderState struct {
	Uploading  bool   `json:"uploading"`
	PreviewURL string `json:"previewUrl,omitempty"`
	Thumbnail  string `json:"thumbnail,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Uploader holds the upload widget state: one upload at a time, the hosted URL
// as preview, and a local thumbnail when the image can be decoded.
type Uploader struct {
	media  MediaService
	logger *logrus.Logger

	mu    sync.Mutex
	state UploaderState
}

func NewUploader(media MediaService, logger *logrus.Logger) *Uploader {
	return &Uploader{media: media, logger: logger}
}

func (u *Uploader) Upload(ctx context.Context, file models.ImageFile) models.UploadResult {
	u.mu.Lock()
	if u.state.Uploading {
		u.mu.Unlock()
		return models.UploadFailed(errors.KindValidation, msgUploadEmCurso)
	}
	u.state.Uploading = true
	u.state.Error = ""
	u.mu.Unlock()

	result := u.media.Upload(ctx, file)

	var thumb string
	if result.OK() {
		t, err := thumbnail(file.Data)
		if err != nil {
			u.logger.WithError(err).WithField("file", file.Name).Debug("no thumbnail for image")
		}
		thumb = t
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.state.Uploading = false
	if !result.OK() {
		u.state.Error = result.Failure.Message
		return result
	}
	u.state.PreviewURL = result.URL
	u.state.Thumbnail = thumb
	return result
}

// Remove clears the preview, leaving the hosted copy where it is.
func (u *Uploader) Remove() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.state.PreviewURL = ""
	u.state.Thumbnail = ""
	u.state.Error = ""
}

func (u *Uploader) State() UploaderState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// thumbnail renders a JPEG data URI that fits in 200x200, honoring EXIF orientation.
func thumbnail(data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}
	small := resize.Thumbnail(thumbnailMaxPixels, thumbnailMaxPixels, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, small, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
