package db

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/techagentng/ecodenuncia/config"
	"github.com/techagentng/ecodenuncia/models"
)

const (
	MsgUploadFalhou       = "Erro ao fazer upload da imagem"
	MsgUploadDesconhecido = "Erro desconhecido no upload"

	folderName = "denuncias"
)

// ImageStore hosts an already validated image and returns its public URL.
// Failures are *errors.Error values of kind Provider or Transport.
type ImageStore interface {
	Name() string
	Store(ctx context.Context, file models.ImageFile) (string, error)
}

// NewImageStore picks the store named by c.ImageHost.
func NewImageStore(ctx context.Context, c *config.Config) (ImageStore, error) {
	switch c.ImageHost {
	case config.ImageHostImgbb:
		return NewImgbbStore(c.ImgbbApiKey, c.ImgbbUploadURL, c.HTTPTimeout), nil
	case config.ImageHostS3:
		return NewS3Store(ctx, S3Config{
			Region:    c.AWSRegion,
			Bucket:    c.AWSBucket,
			AccessKey: c.AWSAccessKeyID,
			SecretKey: c.AWSSecretAccessKey,
		})
	case config.ImageHostMinio:
		return NewMinioStore(MinioConfig{
			Endpoint:  c.MinioEndpoint,
			Region:    c.AWSRegion,
			Bucket:    c.AWSBucket,
			AccessKey: c.AWSAccessKeyID,
			SecretKey: c.AWSSecretAccessKey,
			UseSSL:    c.MinioUseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown image host %q", c.ImageHost)
	}
}

func generateUniqueFilename(extension string) string {
	return fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), uuid.New(), extension)
}

// objectKey builds "denuncias/<unique><ext>", taking the extension from the file
// name or, failing that, from its content type.
func objectKey(file models.ImageFile) string {
	ext := strings.ToLower(filepath.Ext(file.Name))
	if ext == "" {
		if m := mimetype.Lookup(file.ContentType); m != nil {
			ext = m.Extension()
		}
	}
	return folderName + "/" + generateUniqueFilename(ext)
}
