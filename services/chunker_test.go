package services

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkPagesPageAttribution(t *testing.T) {
	pages := map[int]string{
		1: strings.Repeat("a", 2500),
		2: "short page",
		3: strings.Repeat("b", 1200),
	}

	chunker := NewChunker(1000, 200)
	chunks := chunker.ChunkPages(pages, "doc1", "notes.pdf")

	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}

	for _, c := range chunks {
		if c.Page < 1 || c.Page > 3 {
			t.Fatalf("chunk %s attributed to unknown page %d", c.ChunkID, c.Page)
		}
		if !strings.Contains(pages[c.Page], c.Text) {
			t.Errorf("chunk %s text does not come from page %d", c.ChunkID, c.Page)
		}
		if c.TotalPages != 3 {
			t.Errorf("chunk %s total pages = %d, want 3", c.ChunkID, c.TotalPages)
		}
		if c.PDFID != "doc1" || c.PDFName != "notes.pdf" {
			t.Errorf("chunk %s lost document identity", c.ChunkID)
		}
	}
}

func TestChunkPagesChunkIDs(t *testing.T) {
	pages := map[int]string{
		2: strings.Repeat("x", 1800),
	}

	chunker := NewChunker(1000, 200)
	chunks := chunker.ChunkPages(pages, "doc1", "")

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].ChunkID != "2_0" || chunks[1].ChunkID != "2_1" {
		t.Errorf("chunk ids = %q, %q; want 2_0, 2_1", chunks[0].ChunkID, chunks[1].ChunkID)
	}
}

func TestChunkPagesOverlapStaysOnPage(t *testing.T) {
	pages := map[int]string{
		1: strings.Repeat("a", 1500),
		2: strings.Repeat("b", 1500),
	}

	chunker := NewChunker(1000, 200)
	chunks := chunker.ChunkPages(pages, "doc1", "")

	for _, c := range chunks {
		var other byte = 'b'
		if c.Page == 2 {
			other = 'a'
		}
		if strings.IndexByte(c.Text, other) >= 0 {
			t.Fatalf("chunk %s mixes text across pages", c.ChunkID)
		}
	}
}

func TestChunkPagesMultiByteTextStaysValid(t *testing.T) {
	// 1200 three-byte runes; windows must land on rune boundaries,
	// never inside a character.
	pages := map[int]string{
		1: strings.Repeat("あ", 1200),
	}

	chunker := NewChunker(1000, 200)
	chunks := chunker.ChunkPages(pages, "doc1", "")

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	for _, c := range chunks {
		if !utf8.ValidString(c.Text) {
			t.Errorf("chunk %s contains invalid UTF-8", c.ChunkID)
		}
	}
	if n := utf8.RuneCountInString(chunks[0].Text); n != 1000 {
		t.Errorf("first chunk = %d runes, want 1000", n)
	}
	if n := utf8.RuneCountInString(chunks[1].Text); n != 400 {
		t.Errorf("second chunk = %d runes, want 400", n)
	}
}

func TestChunkPagesSentinelPageYieldsChunk(t *testing.T) {
	pages := map[int]string{
		1: "real content",
		2: "[Page 2 - No extractable text]",
	}

	chunker := NewChunker(1000, 200)
	chunks := chunker.ChunkPages(pages, "doc1", "")

	found := false
	for _, c := range chunks {
		if c.Page == 2 {
			found = true
			if c.Text != "[Page 2 - No extractable text]" {
				t.Errorf("sentinel page chunk text = %q", c.Text)
			}
		}
	}
	if !found {
		t.Fatal("sentinel page produced no chunk")
	}
}

func TestChunkPageRange(t *testing.T) {
	pages := map[int]string{
		1: "page one",
		2: "page two",
		3: "page three",
	}
	chunker := NewChunker(1000, 200)

	chunks, err := chunker.ChunkPageRange(pages, "doc1", 2, 3, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range chunks {
		if c.Page < 2 || c.Page > 3 {
			t.Errorf("chunk from page %d outside range", c.Page)
		}
	}

	if _, err := chunker.ChunkPageRange(pages, "doc1", 0, 2, ""); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("start=0: got %v, want ErrInvalidRange", err)
	}
	if _, err := chunker.ChunkPageRange(pages, "doc1", 3, 2, ""); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("end<start: got %v, want ErrInvalidRange", err)
	}
	if _, err := chunker.ChunkPageRange(pages, "doc1", 7, 9, ""); !errors.Is(err, ErrEmptyRange) {
		t.Errorf("out of range: got %v, want ErrEmptyRange", err)
	}
}
