package db

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/techagentng/ecodenuncia/errors"
	"github.com/techagentng/ecodenuncia/models"
)

type imgbbResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ImgbbStore posts images to the ImgBB upload API as base64 form fields.
type ImgbbStore struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

func NewImgbbStore(apiKey, endpoint string, timeout time.Duration) *ImgbbStore {
	return &ImgbbStore{
		apiKey:   apiKey,
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

func (s *ImgbbStore) Name() string { return "imgbb" }

func (s *ImgbbStore) Store(ctx context.Context, file models.ImageFile) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"key", s.apiKey},
		{"image", base64.StdEncoding.EncodeToString(file.Data)},
		{"name", file.BaseName()},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return "", errors.Transport(MsgUploadDesconhecido)
		}
	}
	if err := w.Close(); err != nil {
		return "", errors.Transport(MsgUploadDesconhecido)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &buf)
	if err != nil {
		return "", errors.Transport(MsgUploadDesconhecido)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.http.Do(req)
	if err != nil {
		return "", errors.Transport(MsgUploadDesconhecido)
	}
	defer resp.Body.Close()

	var result imgbbResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", errors.Transport(MsgUploadDesconhecido)
	}
	if result.Success && result.Data.URL != "" {
		return result.Data.URL, nil
	}

	msg := MsgUploadFalhou
	if result.Error != nil && result.Error.Message != "" {
		msg = result.Error.Message
	}
	return "", errors.Provider(msg)
}
