package services

import (
	"math"
	"testing"

	"github.com/AbhishekDash-2020331001/Quizzy/models"
)

func intPtr(n int) *int { return &n }

func TestResolvePage(t *testing.T) {
	tests := []struct {
		name     string
		chunk    models.StoredChunk
		wantPage int
		wantOK   bool
	}{
		{"current schema", models.StoredChunk{PageNumber: intPtr(7)}, 7, true},
		{"current wins over legacy", models.StoredChunk{PageNumber: intPtr(7), Pages: "3,4"}, 7, true},
		{"legacy single", models.StoredChunk{Pages: "3"}, 3, true},
		{"legacy list takes first", models.StoredChunk{Pages: "3,4,5"}, 3, true},
		{"legacy with spaces", models.StoredChunk{Pages: " 9 ,10"}, 9, true},
		{"legacy garbage", models.StoredChunk{Pages: "abc"}, 0, false},
		{"no metadata", models.StoredChunk{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, ok := resolvePage(tt.chunk)
			if page != tt.wantPage || ok != tt.wantOK {
				t.Errorf("resolvePage() = (%d, %v), want (%d, %v)", page, ok, tt.wantPage, tt.wantOK)
			}
		})
	}
}

func TestFilterPageRange(t *testing.T) {
	stored := []models.StoredChunk{
		{ChunkID: "5_0", PageNumber: intPtr(5), Text: "five"},
		{ChunkID: "2_0", PageNumber: intPtr(2), Text: "two"},
		{ChunkID: "legacy", Pages: "3,4", Text: "three"},
		{ChunkID: "orphan", Text: "no page metadata"},
		{ChunkID: "9_0", PageNumber: intPtr(9), Text: "nine"},
	}

	results := filterPageRange(stored, 2, 5)

	want := []string{"2_0", "legacy", "5_0"}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for i, id := range want {
		if results[i].ChunkID != id {
			t.Errorf("results[%d] = %s, want %s", i, results[i].ChunkID, id)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].PageNumber < results[i-1].PageNumber {
			t.Errorf("results not sorted by page: %v before %v", results[i-1].PageNumber, results[i].PageNumber)
		}
	}
}

func TestPerDocBudget(t *testing.T) {
	tests := []struct {
		k, n, want int
	}{
		{8, 2, 5},
		{8, 4, 3},
		{4, 8, 2}, // k/n rounds to zero, floor of one applies
		{12, 3, 5},
		{1, 1, 2},
	}
	for _, tt := range tests {
		if got := perDocBudget(tt.k, tt.n); got != tt.want {
			t.Errorf("perDocBudget(%d, %d) = %d, want %d", tt.k, tt.n, got, tt.want)
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	if got := cosineSimilarity(a, b); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("identical vectors: got %f, want 1.0", got)
	}

	c := []float32{0, 1, 0}
	if got := cosineSimilarity(a, c); math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors: got %f, want 0", got)
	}

	if got := cosineSimilarity(a, []float32{1, 2}); got != 0 {
		t.Errorf("mismatched dimensions: got %f, want 0", got)
	}
	if got := cosineSimilarity(a, []float32{0, 0, 0}); got != 0 {
		t.Errorf("zero vector: got %f, want 0", got)
	}
}
