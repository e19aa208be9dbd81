// Package app validates uploaded files and stores them under predictable keys.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/dejobratic/storefront/internal/apperror"
	"github.com/dejobratic/storefront/internal/uploads/ports"
	"github.com/gabriel-vasile/mimetype"
)

const (
	MaxImageSize        = 5 << 20
	MaxPaymentProofSize = 10 << 20

	ImageTooLarge        = "File size must be less than 5MB"
	PaymentProofTooLarge = "File size must be less than 10MB"
)

var paymentProofTypes = []string{"image/jpeg", "image/png", "image/gif", "application/pdf"}

// File is an uploaded multipart file. ContentType is the declared type of the part.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Result is returned to the client after a successful upload.
type Result struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileSize int    `json:"fileSize"`
	MimeType string `json:"mimeType"`
}

type Service struct {
	store  ports.ObjectStore
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store ports.ObjectStore, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

// UploadImage stores a product image under products/<productID>/<millis>-<name>.
func (s *Service) UploadImage(ctx context.Context, productID string, file *File) (*Result, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, apperror.Validation("Product ID is required")
	}
	if file == nil {
		return nil, apperror.Validation("File is required")
	}

	contentType := ContentType(file)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperror.Validation("Only image files are allowed").
			WithDetails(map[string]string{"mimeType": contentType})
	}
	if len(file.Data) > MaxImageSize {
		return nil, apperror.Validation(ImageTooLarge)
	}

	key := fmt.Sprintf("products/%s/%d-%s", productID, s.now().UnixMilli(), path.Base(file.Name))
	return s.put(ctx, key, file, contentType, "Failed to upload image to storage")
}

// UploadPaymentProof stores a payment proof under payments/<orderID>/<millis>.<ext>.
func (s *Service) UploadPaymentProof(ctx context.Context, orderID string, file *File) (*Result, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, apperror.Validation("Order ID is required")
	}
	if file == nil {
		return nil, apperror.Validation("Payment proof file is required")
	}

	contentType := ContentType(file)
	if !slices.Contains(paymentProofTypes, contentType) {
		return nil, apperror.Validation("Only images (JPG, PNG, GIF) and PDF files are allowed").
			WithDetails(map[string]string{"mimeType": contentType})
	}
	if len(file.Data) > MaxPaymentProofSize {
		return nil, apperror.Validation(PaymentProofTooLarge)
	}

	key := fmt.Sprintf("payments/%s/%d.%s", orderID, s.now().UnixMilli(), extension(file.Name))
	return s.put(ctx, key, file, contentType, "Failed to upload payment proof to storage")
}

// DeleteFile removes the object behind a URL returned by an upload.
func (s *Service) DeleteFile(ctx context.Context, url string) error {
	key, err := s.store.KeyFromURL(url)
	if err != nil {
		return apperror.Validation("Invalid file URL").Wrap(err)
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	s.logger.InfoContext(ctx, "file deleted", "key", key)
	return nil
}

func (s *Service) put(ctx context.Context, key string, file *File, contentType, failure string) (*Result, error) {
	err := s.store.Put(ctx, ports.Object{Key: key, ContentType: contentType, Data: file.Data})
	if err != nil {
		s.logger.ErrorContext(ctx, "upload failed", "key", key, "error", err)
		return nil, apperror.Validation(failure).Wrap(err)
	}

	s.logger.InfoContext(ctx, "file uploaded", "key", key, "size", len(file.Data), "mime_type", contentType)

	return &Result{
		URL:      s.store.URL(key),
		FileName: file.Name,
		FileSize: len(file.Data),
		MimeType: contentType,
	}, nil
}

// ContentType is the declared type without parameters, or the sniffed type when the
// client sent none or a generic one.
func ContentType(file *File) string {
	declared, _, err := mime.ParseMediaType(file.ContentType)
	if err == nil && declared != "" && declared != "application/octet-stream" {
		return declared
	}

	sniffed, _, err := mime.ParseMediaType(mimetype.Detect(file.Data).String())
	if err != nil {
		return "application/octet-stream"
	}
	return sniffed
}

// extension is the text after the last dot, or the whole name when there is none.
func extension(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
