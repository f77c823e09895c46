package models

// QuizType selects how quiz context is gathered.
type QuizType string

const (
	QuizTypePageRange     QuizType = "page_range"
	QuizTypeTopic         QuizType = "topic"
	QuizTypeMultiPDFTopic QuizType = "multi_pdf_topic"
)

// Valid reports whether t is one of the known quiz types.
func (t QuizType) Valid() bool {
	switch t {
	case QuizTypePageRange, QuizTypeTopic, QuizTypeMultiPDFTopic:
		return true
	}
	return false
}

// QuizQuestion is one multiple-choice question with exactly four options.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// QuizRequest enqueues quiz generation for an exam.
type QuizRequest struct {
	QuizType     QuizType `json:"quiz_type" binding:"required"`
	PDFIDs       []string `json:"pdf_ids" binding:"required"`
	Topic        string   `json:"topic"`
	PageStart    int      `json:"page_start"`
	PageEnd      int      `json:"page_end"`
	NumQuestions int      `json:"num_questions"`
	Difficulty   string   `json:"difficulty"`
	ExamID       int64    `json:"exam_id"`
}

// QuizQueuedResponse acknowledges a queued quiz generation job.
type QuizQueuedResponse struct {
	JobID   string `json:"job_id"`
	QuizID  string `json:"quiz_id"`
	Message string `json:"message"`
	ExamID  int64  `json:"exam_id"`
	Status  string `json:"status"`
}

// QuizResult is the payload written on successful generation and delivered
// in the quiz-generated webhook.
type QuizResult struct {
	QuizID    string         `json:"quiz_id"`
	Questions []QuizQuestion `json:"questions"`
	Metadata  QuizMetadata   `json:"metadata"`
	ExamID    int64          `json:"exam_id"`
	Status    string         `json:"status"`
	Message   string         `json:"message"`
}

// QuizMetadata summarizes how a quiz was generated.
type QuizMetadata struct {
	QuizType     QuizType `json:"quiz_type"`
	NumQuestions int      `json:"num_questions"`
	Difficulty   string   `json:"difficulty"`
	Topic        string   `json:"topic,omitempty"`
	PDFCount     int      `json:"pdf_count"`
}
