package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AbhishekDash-2020331001/Quizzy/models"
)

// Chunker splits extracted page text into fixed-size overlapping chunks.
// Chunks never cross page boundaries, so every chunk is attributable to
// exactly one source page.
type Chunker struct {
	maxChunkSize int
	overlap      int
}

func NewChunker(maxChunkSize, overlap int) *Chunker {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlap < 0 || overlap >= maxChunkSize {
		overlap = maxChunkSize / 5
	}
	return &Chunker{maxChunkSize: maxChunkSize, overlap: overlap}
}

// ChunkPages chunks every page of a document in ascending page order.
// Pages holding only an extraction sentinel still produce one chunk so the
// stored document covers every page.
func (c *Chunker) ChunkPages(pages map[int]string, pdfID, pdfName string) []models.Chunk {
	nums := sortedPageNumbers(pages)
	totalPages := len(nums)

	var chunks []models.Chunk
	for _, page := range nums {
		chunks = append(chunks, c.chunkPage(pages[page], page, pdfID, pdfName, totalPages)...)
	}
	return chunks
}

// ChunkPageRange chunks only pages within [start, end].
func (c *Chunker) ChunkPageRange(pages map[int]string, pdfID string, start, end int, pdfName string) ([]models.Chunk, error) {
	if start < 1 || end < start {
		return nil, fmt.Errorf("%w: %d-%d", ErrInvalidRange, start, end)
	}

	nums := sortedPageNumbers(pages)
	totalPages := len(nums)

	var chunks []models.Chunk
	matched := false
	for _, page := range nums {
		if page < start || page > end {
			continue
		}
		matched = true
		chunks = append(chunks, c.chunkPage(pages[page], page, pdfID, pdfName, totalPages)...)
	}
	if !matched {
		return nil, fmt.Errorf("%w: pages %d-%d", ErrEmptyRange, start, end)
	}
	return chunks, nil
}

// chunkPage splits one page into overlapping windows. Window size and
// overlap are measured in runes, so a window edge never lands inside a
// multi-byte character. A page shorter than the chunk size yields a
// single chunk.
func (c *Chunker) chunkPage(text string, page int, pdfID, pdfName string, totalPages int) []models.Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	var chunks []models.Chunk
	index := 0
	for startIdx := 0; startIdx < len(runes); {
		endIdx := startIdx + c.maxChunkSize
		if endIdx > len(runes) {
			endIdx = len(runes)
		}

		chunks = append(chunks, models.Chunk{
			ChunkID:     fmt.Sprintf("%d_%d", page, index),
			PDFID:       pdfID,
			PDFName:     pdfName,
			Page:        page,
			IndexOnPage: index,
			TotalPages:  totalPages,
			Text:        string(runes[startIdx:endIdx]),
		})
		index++

		if endIdx >= len(runes) {
			break
		}

		next := endIdx - c.overlap
		if next <= startIdx {
			next = startIdx + 1
		}
		startIdx = next
	}

	return chunks
}

func sortedPageNumbers(pages map[int]string) []int {
	nums := make([]int, 0, len(pages))
	for n := range pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}
