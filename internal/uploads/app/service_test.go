package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dejobratic/storefront/internal/apperror"
	"github.com/dejobratic/storefront/internal/uploads/adapters/memory"
	"github.com/dejobratic/storefront/internal/uploads/ports"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newTestService(store ports.ObjectStore) *Service {
	svc := NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.UnixMilli(1718000000000) }
	return svc
}

func TestUploadImage(t *testing.T) {
	t.Run("stores the image under the product prefix", func(t *testing.T) {
		store := memory.NewStore("https://storage.example.com/shop")
		svc := newTestService(store)

		result, err := svc.UploadImage(context.Background(), "p-1", &File{
			Name:        "dress.png",
			ContentType: "image/png",
			Data:        pngHeader,
		})
		if err != nil {
			t.Fatalf("UploadImage() failed: %v", err)
		}

		wantKey := "products/p-1/1718000000000-dress.png"
		if result.URL != "https://storage.example.com/shop/"+wantKey {
			t.Errorf("unexpected url %s", result.URL)
		}
		if result.FileName != "dress.png" || result.FileSize != len(pngHeader) || result.MimeType != "image/png" {
			t.Errorf("unexpected result %+v", result)
		}
		object, ok := store.Object(wantKey)
		if !ok || !bytes.Equal(object.Data, pngHeader) || object.ContentType != "image/png" {
			t.Errorf("object not stored as expected: %+v", object)
		}
	})

	tests := []struct {
		name      string
		productID string
		file      *File
		message   string
	}{
		{"missing product id", "", &File{Name: "a.png", ContentType: "image/png", Data: pngHeader}, "Product ID is required"},
		{"missing file", "p-1", nil, "File is required"},
		{"not an image", "p-1", &File{Name: "a.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}, "Only image files are allowed"},
		{"too large", "p-1", &File{Name: "a.png", ContentType: "image/png", Data: make([]byte, MaxImageSize+1)}, "File size must be less than 5MB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService(memory.NewStore("mem://")).UploadImage(context.Background(), tt.productID, tt.file)
			if !apperror.Is(err, apperror.KindValidation) || err.Error() != tt.message {
				t.Errorf("expected %q, got %v", tt.message, err)
			}
		})
	}
}

func TestUploadPaymentProof(t *testing.T) {
	t.Run("keeps only the extension of the original name", func(t *testing.T) {
		store := memory.NewStore("mem://uploads")
		result, err := newTestService(store).UploadPaymentProof(context.Background(), "ORD-123456789", &File{
			Name:        "bank transfer.pdf",
			ContentType: "application/pdf",
			Data:        []byte("%PDF-1.4"),
		})
		if err != nil {
			t.Fatalf("UploadPaymentProof() failed: %v", err)
		}
		if result.URL != "mem://uploads/payments/ORD-123456789/1718000000000.pdf" {
			t.Errorf("unexpected url %s", result.URL)
		}
	})

	tests := []struct {
		name    string
		orderID string
		file    *File
		message string
	}{
		{"missing order id", " ", &File{Name: "a.png", ContentType: "image/png"}, "Order ID is required"},
		{"missing file", "ORD-1", nil, "Payment proof file is required"},
		{"webp is not accepted", "ORD-1", &File{Name: "a.webp", ContentType: "image/webp"}, "Only images (JPG, PNG, GIF) and PDF files are allowed"},
		{"too large", "ORD-1", &File{Name: "a.pdf", ContentType: "application/pdf", Data: make([]byte, MaxPaymentProofSize+1)}, "File size must be less than 10MB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService(memory.NewStore("mem://")).UploadPaymentProof(context.Background(), tt.orderID, tt.file)
			if !apperror.Is(err, apperror.KindValidation) || err.Error() != tt.message {
				t.Errorf("expected %q, got %v", tt.message, err)
			}
		})
	}
}

type failingStore struct {
	*memory.Store
}

func (failingStore) Put(context.Context, ports.Object) error {
	return errors.New("bucket unavailable")
}

func TestUploadStorageFailure(t *testing.T) {
	svc := newTestService(failingStore{memory.NewStore("mem://")})

	_, err := svc.UploadImage(context.Background(), "p-1", &File{Name: "a.png", ContentType: "image/png", Data: pngHeader})
	if !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var appErr *apperror.Error
	if !errors.As(err, &appErr) || appErr.Message != "Failed to upload image to storage" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestContentType(t *testing.T) {
	tests := []struct {
		name string
		file File
		want string
	}{
		{"declared", File{ContentType: "image/jpeg"}, "image/jpeg"},
		{"declared with parameters", File{ContentType: "image/png; charset=binary"}, "image/png"},
		{"sniffed when missing", File{Data: pngHeader}, "image/png"},
		{"sniffed when generic", File{ContentType: "application/octet-stream", Data: []byte("%PDF-1.7\n")}, "application/pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentType(&tt.file); got != tt.want {
				t.Errorf("ContentType() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDeleteFile(t *testing.T) {
	store := memory.NewStore("mem://uploads")
	svc := newTestService(store)
	ctx := context.Background()

	result, err := svc.UploadImage(ctx, "p-1", &File{Name: "a.png", ContentType: "image/png", Data: pngHeader})
	if err != nil {
		t.Fatalf("UploadImage() failed: %v", err)
	}

	if err := svc.DeleteFile(ctx, result.URL); err != nil {
		t.Fatalf("DeleteFile() failed: %v", err)
	}
	if _, ok := store.Object("products/p-1/1718000000000-a.png"); ok {
		t.Error("expected object to be deleted")
	}

	if err := svc.DeleteFile(ctx, "https://elsewhere.example.com/a.png"); !apperror.Is(err, apperror.KindValidation) {
		t.Errorf("expected validation error for a foreign url, got %v", err)
	}
}
