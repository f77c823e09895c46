package models

// ChatMessage is one prior turn of the conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest asks a question against one or more ingested PDFs.
type ChatRequest struct {
	PDFIDs              []string      `json:"pdf_ids" binding:"required"`
	Message             string        `json:"message" binding:"required"`
	ConversationHistory []ChatMessage `json:"conversation_history"`
}

// ChatResponse is the blocking chat reply with its source chunks.
type ChatResponse struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

// StreamEvent is one frame of a streaming chat response. Type is one of
// "status", "sources", "content", "done", "error". Data is a string except
// for "sources", where it is the source list.
type StreamEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
