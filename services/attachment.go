package services

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"case_desk_app_go/models"

	"github.com/google/uuid"
)

// MaxAttachmentSize is the hard limit for a single attachment (2MB)
const MaxAttachmentSize = 2 * 1024 * 1024

// AttachmentUpload is a file waiting to be encoded onto a case
type AttachmentUpload struct {
	FileName string
	FileType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// AttachmentFromFileHeader adapts a multipart upload
func AttachmentFromFileHeader(fh *multipart.FileHeader) *AttachmentUpload {
	return &AttachmentUpload{
		FileName: fh.Filename,
		FileType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// EncodeAttachment validates the size and encodes the file as a data URL.
// The size is checked before the file is opened.
func EncodeAttachment(upload *AttachmentUpload, uploadedBy string, now time.Time) (models.Attachment, error) {
	if upload == nil || upload.Open == nil {
		return models.Attachment{}, fmt.Errorf("%w: no file", ErrInvalidInput)
	}
	if upload.Size > MaxAttachmentSize {
		return models.Attachment{}, ErrFileTooLarge
	}

	src, err := upload.Open()
	if err != nil {
		return models.Attachment{}, fmt.Errorf("%w: %v", ErrAttachmentRead, err)
	}
	defer src.Close()

	// Declared sizes can lie; never read past the limit
	data, err := io.ReadAll(io.LimitReader(src, MaxAttachmentSize+1))
	if err != nil {
		return models.Attachment{}, fmt.Errorf("%w: %v", ErrAttachmentRead, err)
	}
	if len(data) > MaxAttachmentSize {
		return models.Attachment{}, ErrFileTooLarge
	}

	fileType := strings.TrimSpace(upload.FileType)
	if fileType == "" {
		fileType = http.DetectContentType(data)
	}

	return models.Attachment{
		ID:         uuid.New().String(),
		FileName:   filepath.Base(upload.FileName),
		FileType:   fileType,
		FileSize:   int64(len(data)),
		Content:    "data:" + fileType + ";base64," + base64.StdEncoding.EncodeToString(data),
		UploadedBy: uploadedBy,
		Timestamp:  now,
	}, nil
}

// DecodeAttachment returns the raw bytes and content type of a stored attachment
func DecodeAttachment(a models.Attachment) ([]byte, string, error) {
	content := a.Content
	if !strings.HasPrefix(content, "data:") {
		return nil, "", fmt.Errorf("%w: attachment is not a data URL", ErrInvalidInput)
	}
	header, payload, ok := strings.Cut(content[len("data:"):], ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, "", fmt.Errorf("%w: attachment is not base64 encoded", ErrInvalidInput)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	contentType := strings.TrimSuffix(header, ";base64")
	if contentType == "" {
		contentType = a.FileType
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}
