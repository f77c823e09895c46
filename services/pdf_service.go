package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/AbhishekDash-2020331001/Quizzy/internal/config"
	"github.com/AbhishekDash-2020331001/Quizzy/internal/logger"
)

// PDFService downloads PDFs and extracts per-page text.
type PDFService struct {
	config     *config.Config
	httpClient *http.Client
}

func NewPDFService(cfg *config.Config) *PDFService {
	return &PDFService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.DownloadTimeout,
		},
	}
}

// Download fetches a PDF from the given URL. The response must either carry
// an application/pdf content type or start with the %PDF magic bytes.
func (s *PDFService) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download PDF: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to download PDF: status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, s.config.MaxPDFSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF body: %w", err)
	}
	if int64(len(content)) > s.config.MaxPDFSize {
		return nil, fmt.Errorf("pdf exceeds maximum size of %d bytes", s.config.MaxPDFSize)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/pdf") && !bytes.HasPrefix(content, []byte("%PDF")) {
		return nil, fmt.Errorf("%w: content type %q", ErrNotAPDF, contentType)
	}

	return content, nil
}

// ExtractPages extracts text page by page. Page numbers are 1-based. Pages
// with no extractable text or a failing extraction get a sentinel marker so
// page numbering stays aligned with the source document.
func (s *PDFService) ExtractPages(content []byte) (map[int]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrExtraction)
	}

	pages := make(map[int]string, numPages)
	extracted := 0

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages[i] = fmt.Sprintf("[Page %d - No extractable text]", i)
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("Failed to extract text from page", "page", i, "error", err)
			pages[i] = fmt.Sprintf("[Page %d - Text extraction failed]", i)
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			pages[i] = fmt.Sprintf("[Page %d - No extractable text]", i)
			continue
		}

		pages[i] = text
		extracted++
	}

	if extracted == 0 {
		return nil, fmt.Errorf("%w: no text on any of %d pages", ErrExtraction, numPages)
	}

	return pages, nil
}

// PageRangeText joins the text of pages [start, end] with page headers.
func (s *PDFService) PageRangeText(pages map[int]string, start, end int) (string, error) {
	if start < 1 || end < start {
		return "", fmt.Errorf("%w: %d-%d", ErrInvalidRange, start, end)
	}

	nums := make([]int, 0, end-start+1)
	for n := range pages {
		if n >= start && n <= end {
			nums = append(nums, n)
		}
	}
	if len(nums) == 0 {
		return "", fmt.Errorf("%w: pages %d-%d", ErrNoContentInRange, start, end)
	}
	sort.Ints(nums)

	var b strings.Builder
	for _, n := range nums {
		fmt.Fprintf(&b, "--- Page %d ---\n%s\n\n", n, pages[n])
	}
	return strings.TrimSpace(b.String()), nil
}
