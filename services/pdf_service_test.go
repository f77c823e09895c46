package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AbhishekDash-2020331001/Quizzy/internal/config"
)

func testPDFService() *PDFService {
	return NewPDFService(&config.Config{
		DownloadTimeout: 5 * time.Second,
		MaxPDFSize:      1 << 20,
	})
}

func TestDownloadAcceptsPDFContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("not really pdf bytes"))
	}))
	defer srv.Close()

	content, err := testPDFService().Download(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(content) != "not really pdf bytes" {
		t.Errorf("unexpected content: %q", content)
	}
}

func TestDownloadAcceptsMagicBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("%PDF-1.7 rest of file"))
	}))
	defer srv.Close()

	if _, err := testPDFService().Download(context.Background(), srv.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDownloadRejectsNonPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>not a pdf</html>"))
	}))
	defer srv.Close()

	_, err := testPDFService().Download(context.Background(), srv.URL)
	if !errors.Is(err, ErrNotAPDF) {
		t.Fatalf("got %v, want ErrNotAPDF", err)
	}
}

func TestDownloadRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := testPDFService().Download(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestPageRangeText(t *testing.T) {
	pages := map[int]string{
		1: "first",
		2: "second",
		3: "third",
	}
	svc := testPDFService()

	text, err := svc.PageRangeText(pages, 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "--- Page 1 ---") || !strings.Contains(text, "--- Page 2 ---") {
		t.Errorf("missing page headers: %q", text)
	}
	if strings.Contains(text, "third") {
		t.Errorf("page 3 leaked into range 1-2: %q", text)
	}
	if strings.Index(text, "first") > strings.Index(text, "second") {
		t.Errorf("pages out of order: %q", text)
	}

	if _, err := svc.PageRangeText(pages, 0, 2); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("start=0: got %v, want ErrInvalidRange", err)
	}
	if _, err := svc.PageRangeText(pages, 3, 1); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("end<start: got %v, want ErrInvalidRange", err)
	}
	if _, err := svc.PageRangeText(pages, 10, 12); !errors.Is(err, ErrNoContentInRange) {
		t.Errorf("empty range: got %v, want ErrNoContentInRange", err)
	}
}
