package models

import (
	"strings"

	"github.com/techagentng/ecodenuncia/errors"
)

// ImageFile is a picked file as the uploader receives it.
type ImageFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// Len is the declared size, or the byte count when none was declared.
func (f ImageFile) Len() int64 {
	if f.Size > 0 {
		return f.Size
	}
	return int64(len(f.Data))
}

// BaseName is the file name up to its first dot.
func (f ImageFile) BaseName() string {
	return strings.SplitN(f.Name, ".", 2)[0]
}

// UploadResult carries either the hosted URL or a failure, never both.
type UploadResult struct {
	URL     string         `json:"url,omitempty"`
	Failure *UploadFailure `json:"failure,omitempty"`
}

type UploadFailure struct {
	Kind    errors.Kind `json:"-"`
	Message string      `json:"message"`
}

func UploadOK(url string) UploadResult {
	return UploadResult{URL: url}
}

func UploadFailed(kind errors.Kind, message string) UploadResult {
	return UploadResult{Failure: &UploadFailure{Kind: kind, Message: message}}
}

func (r UploadResult) OK() bool {
	return r.Failure == nil && r.URL != ""
}

// Err converts a failed result into the typed error, nil on success.
func (r UploadResult) Err() error {
	if r.Failure == nil {
		return nil
	}
	return &errors.Error{Message: r.Failure.Message, Status: statusForKind(r.Failure.Kind), Kind: r.Failure.Kind}
}

func statusForKind(kind errors.Kind) int {
	switch kind {
	case errors.KindValidation:
		return errors.Validation("").Status
	case errors.KindTransport:
		return errors.Transport("").Status
	default:
		return errors.Provider("").Status
	}
}
