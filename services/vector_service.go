package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AbhishekDash-2020331001/Quizzy/internal/ai"
	"github.com/AbhishekDash-2020331001/Quizzy/internal/logger"
	"github.com/AbhishekDash-2020331001/Quizzy/models"
)

const (
	collectionPrefix = "pdf_"
	insertBatchSize  = 10
)

// VectorService stores chunk embeddings one Mongo collection per document
// and ranks them by cosine similarity in process.
type VectorService struct {
	db       *mongo.Database
	embedder *ai.Embedder
}

func NewVectorService(db *mongo.Database, embedder *ai.Embedder) *VectorService {
	return &VectorService{db: db, embedder: embedder}
}

func collectionName(pdfID string) string {
	return collectionPrefix + pdfID
}

// AddDocuments embeds and inserts chunks into the document's collection,
// creating it on first insert. Re-adding the same document duplicates its
// chunks; callers mint a fresh pdf id per upload.
func (s *VectorService) AddDocuments(ctx context.Context, chunks []models.Chunk, pdfID string) error {
	if len(chunks) == 0 {
		return nil
	}

	col := s.db.Collection(collectionName(pdfID))

	for start := 0; start < len(chunks); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed chunk batch: %w", err)
		}

		docs := make([]interface{}, len(batch))
		for i, c := range batch {
			page := c.Page
			docs[i] = models.StoredChunk{
				ChunkID:     c.ChunkID,
				PDFID:       c.PDFID,
				PDFName:     c.PDFName,
				PageNumber:  &page,
				TotalPages:  c.TotalPages,
				IndexOnPage: c.IndexOnPage,
				Text:        c.Text,
				Vector:      vectors[i],
			}
		}

		if _, err := col.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("%w: insert chunks: %v", ErrStorage, err)
		}
	}

	// Index supports page-range scans over large documents
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "page_number", Value: 1}},
	})
	if err != nil {
		logger.Warn("Failed to create page index", "pdf_id", pdfID, "error", err)
	}

	return nil
}

// Search returns the top k chunks of one document ranked by cosine
// similarity to the query. A document that was never ingested yields an
// empty result, not an error.
func (s *VectorService) Search(ctx context.Context, query, pdfID string, k int) ([]models.SearchResult, error) {
	exists, err := s.collectionExists(ctx, pdfID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []models.SearchResult{}, nil
	}

	queryVec, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	stored, err := s.loadChunks(ctx, pdfID)
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(stored))
	for _, sc := range stored {
		page, ok := resolvePage(sc)
		if !ok {
			page = 0
		}
		results = append(results, models.SearchResult{
			ChunkID:    sc.ChunkID,
			PDFID:      sc.PDFID,
			PDFName:    sc.PDFName,
			PageNumber: page,
			Text:       sc.Text,
			Score:      cosineSimilarity(queryVec, sc.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// SearchMultiple searches several documents with a per-document budget and
// concatenates the results in the order the ids were given. Documents that
// fail to search are skipped rather than failing the whole call.
func (s *VectorService) SearchMultiple(ctx context.Context, query string, pdfIDs []string, k int) ([]models.SearchResult, error) {
	if len(pdfIDs) == 0 {
		return []models.SearchResult{}, nil
	}

	perDoc := perDocBudget(k, len(pdfIDs))

	var combined []models.SearchResult
	for _, id := range pdfIDs {
		results, err := s.Search(ctx, query, id, perDoc)
		if err != nil {
			logger.Warn("Search failed for document, skipping", "pdf_id", id, "error", err)
			continue
		}
		combined = append(combined, results...)
	}

	if len(combined) > k {
		combined = combined[:k]
	}
	return combined, nil
}

// perDocBudget spreads a global budget k over n documents with one extra
// per document so short documents do not starve the total.
func perDocBudget(k, n int) int {
	per := k / n
	if per < 1 {
		per = 1
	}
	return per + 1
}

// ChunksInPageRange returns all stored chunks attributed to pages within
// [start, end], in ascending page order.
func (s *VectorService) ChunksInPageRange(ctx context.Context, pdfID string, start, end int) ([]models.SearchResult, error) {
	if start < 1 || end < start {
		return nil, fmt.Errorf("%w: %d-%d", ErrInvalidRange, start, end)
	}

	exists, err := s.collectionExists(ctx, pdfID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, pdfID)
	}

	stored, err := s.loadChunks(ctx, pdfID)
	if err != nil {
		return nil, err
	}

	results := filterPageRange(stored, start, end)
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: pages %d-%d", ErrNoContentInRange, start, end)
	}
	return results, nil
}

// filterPageRange keeps chunks whose resolved page falls in [start, end]
// and stable-sorts them ascending by page.
func filterPageRange(stored []models.StoredChunk, start, end int) []models.SearchResult {
	var results []models.SearchResult
	for _, sc := range stored {
		page, ok := resolvePage(sc)
		if !ok {
			continue
		}
		if page < start || page > end {
			continue
		}
		results = append(results, models.SearchResult{
			ChunkID:    sc.ChunkID,
			PDFID:      sc.PDFID,
			PDFName:    sc.PDFName,
			PageNumber: page,
			Text:       sc.Text,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].PageNumber < results[j].PageNumber
	})
	return results
}

// resolvePage extracts a chunk's page number. Current documents store an
// int page_number; legacy ones store a comma-separated pages string whose
// first value wins. Chunks with neither are unattributable.
func resolvePage(sc models.StoredChunk) (int, bool) {
	if sc.PageNumber != nil {
		return *sc.PageNumber, true
	}
	if sc.Pages != "" {
		first := sc.Pages
		if idx := strings.Index(first, ","); idx >= 0 {
			first = first[:idx]
		}
		page, err := strconv.Atoi(strings.TrimSpace(first))
		if err == nil {
			return page, true
		}
	}
	return 0, false
}

// Describe reports a stored document's chunk count and sampled metadata.
func (s *VectorService) Describe(ctx context.Context, pdfID string) (*models.PDFInfo, error) {
	exists, err := s.collectionExists(ctx, pdfID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, pdfID)
	}

	col := s.db.Collection(collectionName(pdfID))

	count, err := col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: count documents: %v", ErrStorage, err)
	}

	info := &models.PDFInfo{PDFID: pdfID, DocumentCount: count}

	var sample models.StoredChunk
	if err := col.FindOne(ctx, bson.M{}).Decode(&sample); err == nil {
		info.PDFName = sample.PDFName
		info.TotalPages = sample.TotalPages
	}

	return info, nil
}

// Delete drops a document's collection and reports whether it existed.
func (s *VectorService) Delete(ctx context.Context, pdfID string) (bool, error) {
	exists, err := s.collectionExists(ctx, pdfID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	if err := s.db.Collection(collectionName(pdfID)).Drop(ctx); err != nil {
		return false, fmt.Errorf("%w: drop collection: %v", ErrStorage, err)
	}
	return true, nil
}

// ListAll describes every stored document.
func (s *VectorService) ListAll(ctx context.Context) ([]models.PDFInfo, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.M{
		"name": bson.M{"$regex": "^" + collectionPrefix},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list collections: %v", ErrStorage, err)
	}

	infos := make([]models.PDFInfo, 0, len(names))
	for _, name := range names {
		pdfID := strings.TrimPrefix(name, collectionPrefix)
		info, err := s.Describe(ctx, pdfID)
		if err != nil {
			logger.Warn("Failed to describe document", "pdf_id", pdfID, "error", err)
			continue
		}
		infos = append(infos, *info)
	}
	return infos, nil
}

// Ping verifies the storage backend is reachable.
func (s *VectorService) Ping(ctx context.Context) error {
	if err := s.db.Client().Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

func (s *VectorService) collectionExists(ctx context.Context, pdfID string) (bool, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.M{"name": collectionName(pdfID)})
	if err != nil {
		return false, fmt.Errorf("%w: list collections: %v", ErrStorage, err)
	}
	return len(names) > 0, nil
}

func (s *VectorService) loadChunks(ctx context.Context, pdfID string) ([]models.StoredChunk, error) {
	col := s.db.Collection(collectionName(pdfID))

	cursor, err := col.Find(ctx, bson.M{}, options.Find())
	if err != nil {
		return nil, fmt.Errorf("%w: find chunks: %v", ErrStorage, err)
	}
	defer cursor.Close(ctx)

	var stored []models.StoredChunk
	if err := cursor.All(ctx, &stored); err != nil {
		return nil, fmt.Errorf("%w: decode chunks: %v", ErrStorage, err)
	}
	return stored, nil
}

// cosineSimilarity between two vectors, 0 when either has zero norm or the
// dimensions differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
