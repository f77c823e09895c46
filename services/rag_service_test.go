package services

import (
	"strings"
	"testing"

	"github.com/AbhishekDash-2020331001/Quizzy/models"
)

func TestParseQuizResponseJSON(t *testing.T) {
	response := `{
		"questions": [
			{
				"question": "What is 2+2?",
				"options": ["A) 3", "B) 4", "C) 5", "D) 6"],
				"correct_answer": "B) 4",
				"explanation": "Basic addition."
			},
			{
				"question": "What is 3*3?",
				"options": ["A) 6", "B) 8", "C) 9", "D) 12"],
				"correct_answer": "C) 9",
				"explanation": "Basic multiplication."
			}
		]
	}`

	questions := parseQuizResponse(response, 5)
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(questions))
	}
	if questions[0].CorrectAnswer != "B) 4" {
		t.Errorf("correct_answer = %q", questions[0].CorrectAnswer)
	}
}

func TestParseQuizResponseStripsCodeFences(t *testing.T) {
	response := "```json\n{\"questions\": [{\"question\": \"Q?\", \"options\": [\"A) x\", \"B) y\", \"C) z\", \"D) w\"], \"correct_answer\": \"A) x\", \"explanation\": \"e\"}]}\n```"

	questions := parseQuizResponse(response, 5)
	if len(questions) != 1 || questions[0].Question != "Q?" {
		t.Fatalf("fenced JSON not parsed: %+v", questions)
	}
}

func TestParseQuizResponseTruncates(t *testing.T) {
	response := `{"questions": [
		{"question": "Q1?", "options": ["A) a"], "correct_answer": "A) a"},
		{"question": "Q2?", "options": ["A) a"], "correct_answer": "A) a"},
		{"question": "Q3?", "options": ["A) a"], "correct_answer": "A) a"}
	]}`

	questions := parseQuizResponse(response, 2)
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(questions))
	}
}

func TestParseFallbackQuiz(t *testing.T) {
	response := `
Here are your questions:

What is the capital of France?
A) London
B) Paris
C) Berlin
D) Madrid
Correct: B) Paris
Explanation: Paris is the capital of France.

Which planet is largest?
A) Earth
B) Mars
C) Jupiter
D) Venus
Answer: C) Jupiter
Because: Jupiter has the greatest mass and volume.
`

	questions := parseFallbackQuiz(response)
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(questions))
	}

	q := questions[0]
	if q.Question != "What is the capital of France?" {
		t.Errorf("question = %q", q.Question)
	}
	if len(q.Options) != 4 {
		t.Errorf("got %d options, want 4", len(q.Options))
	}
	if q.CorrectAnswer != "B) Paris" {
		t.Errorf("correct answer = %q", q.CorrectAnswer)
	}
	if q.Explanation != "Paris is the capital of France." {
		t.Errorf("explanation = %q", q.Explanation)
	}

	if questions[1].Explanation != "Jupiter has the greatest mass and volume." {
		t.Errorf("because: line not parsed: %q", questions[1].Explanation)
	}
}

func TestParseFallbackQuizDropsIncomplete(t *testing.T) {
	// First question has no answer line, so only the second survives
	response := `
What is incomplete?
A) Option one
B) Option two

What is complete?
A) Yes
B) No
Correct: A) Yes
`

	questions := parseFallbackQuiz(response)
	if len(questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(questions))
	}
	if questions[0].Question != "What is complete?" {
		t.Errorf("question = %q", questions[0].Question)
	}
	if questions[0].Explanation != "No explanation provided" {
		t.Errorf("explanation = %q", questions[0].Explanation)
	}
}

func TestParseFallbackQuizPlaceholder(t *testing.T) {
	questions := parseFallbackQuiz("the model rambled with no recognizable structure")
	if len(questions) != 1 {
		t.Fatalf("got %d questions, want exactly 1 placeholder", len(questions))
	}
	if len(questions[0].Options) != 4 || questions[0].CorrectAnswer == "" {
		t.Errorf("placeholder question malformed: %+v", questions[0])
	}
}

func TestParseQuizResponseNeverEmpty(t *testing.T) {
	for _, response := range []string{"", "garbage", "{\"questions\": []}", "{broken json"} {
		questions := parseQuizResponse(response, 5)
		if len(questions) == 0 {
			t.Errorf("response %q produced zero questions", response)
		}
	}
}

func TestQuizPromptDifficultyGuidance(t *testing.T) {
	easy := buildTopicQuizPrompt("ctx", "algebra", 5, "easy")
	if !strings.Contains(easy, "straightforward and factual") {
		t.Error("easy prompt missing difficulty guidance")
	}

	medium := buildTopicQuizPrompt("ctx", "algebra", 5, "medium")
	if !strings.Contains(medium, "analytical and application-based") {
		t.Error("medium prompt missing difficulty guidance")
	}

	hard := buildTopicQuizPrompt("ctx", "algebra", 5, "hard")
	if !strings.Contains(hard, "complex analysis and synthesis") {
		t.Error("hard prompt missing difficulty guidance")
	}
}

func TestQuizPromptsShape(t *testing.T) {
	prompts := map[string]string{
		"topic":      buildTopicQuizPrompt("some context", "physics", 7, "medium"),
		"page_range": buildPageRangeQuizPrompt("some context", 2, 9, 7, "medium"),
		"multi_pdf":  buildMultiPDFQuizPrompt("some context", "physics", 7, "medium"),
	}

	for name, prompt := range prompts {
		if !strings.Contains(prompt, "exactly 4 options (A, B, C, D)") {
			t.Errorf("%s prompt missing four-options rule", name)
		}
		if !strings.Contains(prompt, `"questions"`) {
			t.Errorf("%s prompt missing JSON format block", name)
		}
		if !strings.Contains(prompt, "7 multiple choice questions") {
			t.Errorf("%s prompt missing question count", name)
		}
		if !strings.Contains(prompt, "some context") {
			t.Errorf("%s prompt missing the context", name)
		}
	}

	if !strings.Contains(prompts["page_range"], "pages 2 to 9") {
		t.Error("page range prompt missing the range")
	}
	if !strings.Contains(prompts["multi_pdf"], "multiple PDF documents") {
		t.Error("multi pdf prompt missing multi-source wording")
	}
}

func TestChunkSources(t *testing.T) {
	docs := []models.SearchResult{
		{ChunkID: "1_0", PDFName: "notes.pdf"},
		{ChunkID: "3_2", PDFName: "slides.pdf"},
	}

	single := chunkSources(docs, false)
	if single[0] != "Chunk 1_0" || single[1] != "Chunk 3_2" {
		t.Errorf("single-doc sources = %v", single)
	}

	multi := chunkSources(docs, true)
	if multi[0] != "notes.pdf - Chunk 1_0" || multi[1] != "slides.pdf - Chunk 3_2" {
		t.Errorf("multi-doc sources = %v", multi)
	}
}

func TestNoContentMessage(t *testing.T) {
	if msg := noContentMessage(1); !strings.Contains(msg, "the PDF ") {
		t.Errorf("singular message = %q", msg)
	}
	if msg := noContentMessage(3); !strings.Contains(msg, "3 PDFs") {
		t.Errorf("plural message = %q", msg)
	}
}

func TestBuildChatPromptHistoryWindow(t *testing.T) {
	history := []models.ChatMessage{
		{Role: "user", Content: "oldest message"},
		{Role: "assistant", Content: "old reply"},
		{Role: "user", Content: "m3"},
		{Role: "assistant", Content: "m4"},
		{Role: "user", Content: "m5"},
		{Role: "assistant", Content: "m6"},
		{Role: "user", Content: "m7"},
	}
	docs := []models.SearchResult{{Text: "context chunk"}}

	prompt := buildChatPrompt(docs, "question?", history, 1)

	if strings.Contains(prompt, "oldest message") || strings.Contains(prompt, "old reply") {
		t.Error("history window kept more than the last 5 turns")
	}
	if !strings.Contains(prompt, "User: m3") || !strings.Contains(prompt, "Assistant: m6") {
		t.Error("recent history missing or roles not capitalized")
	}
	if !strings.Contains(prompt, "context chunk") || !strings.Contains(prompt, "question?") {
		t.Error("prompt missing context or question")
	}
	if !strings.Contains(prompt, "the provided PDF content") {
		t.Error("single-doc prompt wording missing")
	}

	multi := buildChatPrompt(docs, "question?", nil, 3)
	if !strings.Contains(multi, "content from 3 PDF documents") {
		t.Error("multi-doc prompt wording missing")
	}
}
