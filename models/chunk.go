package models

// Chunk is a page-bounded fragment of one PDF's extracted text. A chunk
// belongs to exactly one page; splitting never crosses page boundaries so
// page attribution stays exact.
type Chunk struct {
	ChunkID     string `json:"chunk_id" bson:"chunk_id"` // "<page>_<indexOnPage>"
	PDFID       string `json:"pdf_id" bson:"pdf_id"`
	PDFName     string `json:"pdf_name" bson:"pdf_name"`
	Page        int    `json:"page_number" bson:"page_number"`
	IndexOnPage int    `json:"chunk_index_on_page" bson:"chunk_index_on_page"`
	TotalPages  int    `json:"total_pages" bson:"total_pages"`
	Text        string `json:"text" bson:"text"`
}

// StoredChunk is a chunk as persisted in a document's vector collection.
// Legacy documents carry the comma-separated Pages string instead of the
// PageNumber field; readers must tolerate both.
type StoredChunk struct {
	ChunkID     string    `bson:"chunk_id"`
	PDFID       string    `bson:"pdf_id"`
	PDFName     string    `bson:"pdf_name"`
	Pages       string    `bson:"pages,omitempty"`       // legacy schema: "3" or "3,4"
	PageNumber  *int      `bson:"page_number,omitempty"` // current schema
	TotalPages  int       `bson:"total_pages"`
	IndexOnPage int       `bson:"chunk_index_on_page"`
	Text        string    `bson:"text"`
	Vector      []float32 `bson:"vector"`
}

// SearchResult pairs a retrieved chunk with its similarity score.
type SearchResult struct {
	ChunkID    string  `json:"chunk_id"`
	PDFID      string  `json:"pdf_id"`
	PDFName    string  `json:"pdf_name"`
	PageNumber int     `json:"page_number,omitempty"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// PDFInfo describes one stored document collection.
type PDFInfo struct {
	PDFID         string `json:"pdf_id"`
	DocumentCount int64  `json:"document_count"`
	PDFName       string `json:"pdf_name"`
	TotalPages    int    `json:"total_pages"`
}
