package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AbhishekDash-2020331001/Quizzy/internal/ai"
	"github.com/AbhishekDash-2020331001/Quizzy/internal/config"
	"github.com/AbhishekDash-2020331001/Quizzy/internal/logger"
	"github.com/AbhishekDash-2020331001/Quizzy/models"
)

// Retrieval budgets per operation.
const (
	chatSingleK   = 4
	chatMultiK    = 8
	quizTopicK    = 8
	quizMultiPDFK = 12
	historyWindow = 5
	maxQuizTokens = 8192
	chatTemp      = 0.7
	quizTemp      = 0.3
)

// RAGService answers questions and generates quizzes from retrieved chunks.
type RAGService struct {
	vectors   *VectorService
	gemini    *ai.GeminiClient
	chatModel string
	quizModel string
}

func NewRAGService(vectors *VectorService, gemini *ai.GeminiClient, cfg *config.Config) *RAGService {
	return &RAGService{
		vectors:   vectors,
		gemini:    gemini,
		chatModel: cfg.GeminiChatModel,
		quizModel: cfg.GeminiQuizModel,
	}
}

// Chat answers a question against one or more documents, returning the
// answer and the chunk sources it drew from.
func (s *RAGService) Chat(ctx context.Context, pdfIDs []string, message string, history []models.ChatMessage) (string, []string, error) {
	if len(pdfIDs) == 0 {
		return "No PDFs specified. Please select at least one PDF to chat with.", []string{}, nil
	}

	docs, err := s.retrieveForChat(ctx, pdfIDs, message)
	if err != nil {
		return "", nil, err
	}
	if len(docs) == 0 {
		return noContentMessage(len(pdfIDs)), []string{}, nil
	}

	prompt := buildChatPrompt(docs, message, history, len(pdfIDs))

	answer, err := s.gemini.Complete(ctx, prompt, ai.CompleteOptions{
		Model:       s.chatModel,
		Temperature: chatTemp,
	})
	if err != nil {
		return "", nil, fmt.Errorf("chat completion failed: %w", err)
	}

	return answer, chunkSources(docs, len(pdfIDs) > 1), nil
}

// ChatStream answers a question as a stream of events: status, sources,
// another status, one content event per model fragment, then done. Errors
// surface as a terminal error event.
func (s *RAGService) ChatStream(ctx context.Context, pdfIDs []string, message string, history []models.ChatMessage, emit func(models.StreamEvent) error) error {
	if len(pdfIDs) == 0 {
		return emit(models.StreamEvent{
			Type: "error",
			Data: "No PDFs specified. Please select at least one PDF to chat with.",
		})
	}

	if err := emit(models.StreamEvent{Type: "status", Data: "Searching relevant documents..."}); err != nil {
		return err
	}

	docs, err := s.retrieveForChat(ctx, pdfIDs, message)
	if err != nil {
		return emit(models.StreamEvent{Type: "error", Data: err.Error()})
	}
	if len(docs) == 0 {
		return emit(models.StreamEvent{Type: "error", Data: noContentMessage(len(pdfIDs))})
	}

	if err := emit(models.StreamEvent{Type: "sources", Data: chunkSources(docs, len(pdfIDs) > 1)}); err != nil {
		return err
	}
	if err := emit(models.StreamEvent{Type: "status", Data: "Generating response..."}); err != nil {
		return err
	}

	prompt := buildChatPrompt(docs, message, history, len(pdfIDs))

	err = s.gemini.CompleteStream(ctx, prompt, ai.CompleteOptions{
		Model:       s.chatModel,
		Temperature: chatTemp,
	}, func(fragment string) error {
		return emit(models.StreamEvent{Type: "content", Data: fragment})
	})
	if err != nil {
		return emit(models.StreamEvent{
			Type: "error",
			Data: fmt.Sprintf("I'm sorry, I encountered an error while processing your question: %v", err),
		})
	}

	return emit(models.StreamEvent{Type: "done", Data: "Response completed"})
}

func (s *RAGService) retrieveForChat(ctx context.Context, pdfIDs []string, message string) ([]models.SearchResult, error) {
	if len(pdfIDs) == 1 {
		return s.vectors.Search(ctx, message, pdfIDs[0], chatSingleK)
	}
	return s.vectors.SearchMultiple(ctx, message, pdfIDs, chatMultiK)
}

func noContentMessage(pdfCount int) string {
	pdfText := "PDF"
	if pdfCount > 1 {
		pdfText = fmt.Sprintf("%d PDFs", pdfCount)
	}
	return fmt.Sprintf("I couldn't find any relevant information in the %s to answer your question. Please make sure the PDFs have been uploaded and processed correctly.", pdfText)
}

// chunkSources labels retrieved chunks for the client. Multi-document
// answers prefix the chunk with its PDF name.
func chunkSources(docs []models.SearchResult, multi bool) []string {
	sources := make([]string, len(docs))
	for i, doc := range docs {
		chunkID := doc.ChunkID
		if chunkID == "" {
			chunkID = "unknown"
		}
		if multi {
			name := doc.PDFName
			if name == "" {
				name = "Unknown PDF"
			}
			sources[i] = fmt.Sprintf("%s - Chunk %s", name, chunkID)
		} else {
			sources[i] = fmt.Sprintf("Chunk %s", chunkID)
		}
	}
	return sources
}

func buildChatPrompt(docs []models.SearchResult, message string, history []models.ChatMessage, pdfCount int) string {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}
	contextText := strings.Join(texts, "\n\n")

	historyText := ""
	start := len(history) - historyWindow
	if start < 0 {
		start = 0
	}
	for _, msg := range history[start:] {
		role := msg.Role
		if role == "" {
			role = "user"
		}
		historyText += fmt.Sprintf("%s: %s\n", capitalize(role), msg.Content)
	}

	pdfContextText := "the provided PDF content"
	sourceText := "the PDF content"
	if pdfCount > 1 {
		pdfContextText = fmt.Sprintf("the provided content from %d PDF documents", pdfCount)
		sourceText = "the PDF documents"
	}

	return fmt.Sprintf(`You are a helpful AI assistant that answers questions based on %s.
You should be informative, accurate, and helpful while staying grounded in the provided context.

Conversation History:
%s

Relevant Content from PDF Documents:
%s

User Question: %s

Instructions:
1. Answer the question based primarily on %s provided
2. If the answer is not fully contained in %s, clearly state what information is missing
3. Be specific and cite relevant parts of the content when possible
4. If you cannot answer the question based on %s, say so clearly
5. Keep your response focused and relevant to the question
6. When drawing from multiple documents, synthesize the information coherently

Answer:`, pdfContextText, historyText, contextText, message, sourceText, sourceText, sourceText)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// GenerateQuiz gathers context according to the quiz type and asks the
// model for multiple-choice questions. The result is never empty: parse
// failures degrade through a text fallback down to a single placeholder
// question.
func (s *RAGService) GenerateQuiz(ctx context.Context, req models.QuizRequest) ([]models.QuizQuestion, error) {
	var (
		contextText string
		prompt      string
		err         error
	)

	switch req.QuizType {
	case models.QuizTypeMultiPDFTopic:
		contextText, err = s.multiPDFContext(ctx, req.PDFIDs, req.Topic)
		if err != nil {
			return nil, err
		}
		prompt = buildMultiPDFQuizPrompt(contextText, req.Topic, req.NumQuestions, req.Difficulty)

	case models.QuizTypeTopic:
		contextText, err = s.topicContext(ctx, req.PDFIDs[0], req.Topic)
		if err != nil {
			return nil, err
		}
		prompt = buildTopicQuizPrompt(contextText, req.Topic, req.NumQuestions, req.Difficulty)

	default: // page_range
		contextText, err = s.pageRangeContext(ctx, req.PDFIDs[0], req.PageStart, req.PageEnd)
		if err != nil {
			return nil, err
		}
		prompt = buildPageRangeQuizPrompt(contextText, req.PageStart, req.PageEnd, req.NumQuestions, req.Difficulty)
	}

	if strings.TrimSpace(contextText) == "" {
		return nil, fmt.Errorf("no relevant content found for quiz generation")
	}

	response, err := s.gemini.Complete(ctx, prompt, ai.CompleteOptions{
		Model:           s.quizModel,
		Temperature:     quizTemp,
		MaxOutputTokens: maxQuizTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("quiz completion failed: %w", err)
	}

	questions := parseQuizResponse(response, req.NumQuestions)
	return questions, nil
}

func (s *RAGService) multiPDFContext(ctx context.Context, pdfIDs []string, topic string) (string, error) {
	docs, err := s.vectors.SearchMultiple(ctx, topic, pdfIDs, quizMultiPDFK)
	if err != nil {
		return "", err
	}
	return joinChunkTexts(docs), nil
}

func (s *RAGService) topicContext(ctx context.Context, pdfID, topic string) (string, error) {
	docs, err := s.vectors.Search(ctx, topic, pdfID, quizTopicK)
	if err != nil {
		return "", err
	}
	return joinChunkTexts(docs), nil
}

// pageRangeContext assembles quiz context structurally from every chunk in
// the page range, not by similarity search.
func (s *RAGService) pageRangeContext(ctx context.Context, pdfID string, start, end int) (string, error) {
	docs, err := s.vectors.ChunksInPageRange(ctx, pdfID, start, end)
	if err != nil {
		return "", err
	}
	logger.Info("Assembled page range context", "pdf_id", pdfID, "chunks", len(docs), "pages", fmt.Sprintf("%d-%d", start, end))
	return joinChunkTexts(docs), nil
}

func joinChunkTexts(docs []models.SearchResult) string {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}
	return strings.Join(texts, "\n\n")
}

func difficultyGuidance(difficulty, flavor string) string {
	switch difficulty {
	case "easy":
		return "Make questions straightforward and factual"
	case "hard":
		if flavor == "multi" {
			return "Focus on synthesis and complex analysis across sources"
		}
		return "Focus on complex analysis and synthesis"
	default:
		if flavor == "multi" {
			return "Include some comparative and analytical questions"
		}
		return "Include some analytical and application-based questions"
	}
}

const quizJSONFormat = `Return the response in this exact JSON format:
{
    "questions": [
        {
            "question": "Question text here?",
            "options": ["A) Option 1", "B) Option 2", "C) Option 3", "D) Option 4"],
            "correct_answer": "A) Option 1",
            "explanation": "Brief explanation of why this is correct and why others are wrong"
        }
    ]
}`

func buildTopicQuizPrompt(contextText, topic string, numQuestions int, difficulty string) string {
	return fmt.Sprintf(`Create a %s level quiz with %d multiple choice questions about "%s" based on the following content. Multiple topics are colon separated. Make sure you create questions for all the topics if there are multiple topics. You must return the response in the given json format.

Content:
%s

Requirements:
1. Each question should have exactly 4 options (A, B, C, D)
2. Questions should test understanding of the content, not just memorization
3. For %s difficulty: %s
4. Questions should be based on the content provided and not on the user's knowledge or experience. Only include a question if you think it is answerable based on the knowledge gained from the content.
5. It is preferred that you make mathematical and analytical questions which are not directly in the content provided but the knowledge gained from the content should be enough to answer the questions.
6. If a question is theoretical then it must be directly from the provided content.
7. Ensure all information needed to answer is in the provided content
8. Question or answer should not include any sort of graphical illustration.
9. Provide clear explanations for correct answers. The explanation itself should be enough to understand the full concept behind the question.
10. DO NOT include any text outside the JSON structure
11. DO NOT include any comments or explanations in the response
12. The response must be parseable JSON

%s

Generate %d questions following this format exactly. Do not add any additional text or explanations outside the JSON format.`,
		difficulty, numQuestions, topic, contextText, difficulty, difficultyGuidance(difficulty, "single"), quizJSONFormat, numQuestions)
}

func buildPageRangeQuizPrompt(contextText string, pageStart, pageEnd, numQuestions int, difficulty string) string {
	return fmt.Sprintf(`Create a %s level quiz with %d multiple choice questions based on content from pages %d to %d. You must return the response in the given json format.
Content:
%s

Requirements:
1. Each question should have exactly 4 options (A, B, C, D)
2. Questions should focus specifically on content from the specified page range
3. For %s difficulty: %s
4. Questions should be based on the content provided and not on the user's knowledge or experience. Only include a question if you think it is answerable based on the knowledge gained from the content.
5. It is preferred that you make mathematical and analytical questions which are not directly in the content provided but the knowledge gained from the content should be enough to answer the questions.
6. If a question is theoretical then it must be directly from the provided content.
7. Question or answer should not include any sort of graphical illustration.
8. Provide clear explanations for correct answers. The explanation itself should be enough to understand the full concept behind the question
9. Reference the page range when relevant
10. DO NOT include any text outside the JSON structure
11. DO NOT include any comments or explanations in the response
12. The response must be parseable JSON

%s

Generate %d questions following this format exactly. Do not add any additional text or explanations outside the JSON format.`,
		difficulty, numQuestions, pageStart, pageEnd, contextText, difficulty, difficultyGuidance(difficulty, "single"), quizJSONFormat, numQuestions)
}

func buildMultiPDFQuizPrompt(contextText, topic string, numQuestions int, difficulty string) string {
	return fmt.Sprintf(`Create a %s level quiz with %d multiple choice questions about "%s" based on content from multiple PDF documents. Multiple topics are colon separated. Make sure you create questions for all the topics if there are multiple topics. You must return the response in the given json format.
Content from multiple sources:
%s

Requirements:
1. Each question should have exactly 4 options (A, B, C, D)
2. Questions should synthesize information across the different sources
3. For %s difficulty: %s
4. Questions should be based on the content provided and not on the user's knowledge or experience. Only include a question if you think it is answerable based on the knowledge gained from the content.
5. It is preferred that you make mathematical and analytical questions which are not directly in the content provided but the knowledge gained from the content should be enough to answer the questions.
6. If a question is theoretical then it must be directly from the provided content.
7. Question or answer should not include any sort of graphical illustration.
8. Ensure all information needed to answer is in the provided content
9. Provide clear explanations for correct answers. The explanation itself should be enough to understand the full concept behind the question
10. When possible, note if information comes from multiple sources
11. DO NOT include any text outside the JSON structure
12. DO NOT include any comments or explanations in the response
13. The response must be parseable JSON

%s

Generate %d questions following this format exactly. Do not add any additional text or explanations outside the JSON format.`,
		difficulty, numQuestions, topic, contextText, difficulty, difficultyGuidance(difficulty, "multi"), quizJSONFormat, numQuestions)
}

// parseQuizResponse decodes the model's JSON, falling back to line parsing
// and finally to a single placeholder question. Never returns zero
// questions.
func parseQuizResponse(response string, numQuestions int) []models.QuizQuestion {
	var parsed struct {
		Questions []models.QuizQuestion `json:"questions"`
	}

	cleaned := stripCodeFences(response)
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil && len(parsed.Questions) > 0 {
		return truncateQuestions(parsed.Questions, numQuestions)
	}

	logger.Warn("Failed to parse quiz JSON, using fallback parser")
	return truncateQuestions(parseFallbackQuiz(response), numQuestions)
}

// stripCodeFences removes a surrounding markdown code fence if present.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncateQuestions(questions []models.QuizQuestion, numQuestions int) []models.QuizQuestion {
	if numQuestions > 0 && len(questions) > numQuestions {
		return questions[:numQuestions]
	}
	return questions
}

var optionMarkers = []string{"A)", "B)", "C)", "D)"}

func startsWithOptionMarker(line string) bool {
	for _, marker := range optionMarkers {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return false
}

// parseFallbackQuiz extracts questions from free-form model output. A
// question is only flushed once it has options and a correct answer, so
// partial fragments are dropped rather than half-built.
func parseFallbackQuiz(response string) []models.QuizQuestion {
	var questions []models.QuizQuestion

	var (
		question    string
		options     []string
		answer      string
		explanation string
	)

	flush := func() {
		if question != "" && len(options) > 0 && answer != "" {
			if explanation == "" {
				explanation = "No explanation provided"
			}
			questions = append(questions, models.QuizQuestion{
				Question:      question,
				Options:       options,
				CorrectAnswer: answer,
				Explanation:   explanation,
			})
		}
	}

	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.HasSuffix(line, "?") && !startsWithOptionMarker(line):
			flush()
			question = line
			options = nil
			answer = ""
			explanation = ""

		case startsWithOptionMarker(line):
			options = append(options, line)

		case strings.HasPrefix(lower, "correct:") || strings.HasPrefix(lower, "answer:") || strings.HasPrefix(lower, "correct answer:"):
			if _, value, found := strings.Cut(line, ":"); found {
				answer = strings.TrimSpace(value)
			}

		case strings.HasPrefix(lower, "explanation:") || strings.HasPrefix(lower, "because:"):
			if _, value, found := strings.Cut(line, ":"); found {
				explanation = strings.TrimSpace(value)
			}
		}
	}
	flush()

	if len(questions) == 0 {
		questions = []models.QuizQuestion{{
			Question:      "What is the main topic discussed in the provided content?",
			Options:       []string{"A) Topic A", "B) Topic B", "C) Topic C", "D) Topic D"},
			CorrectAnswer: "A) Topic A",
			Explanation:   "This is a fallback question due to parsing issues.",
		}}
	}

	return questions
}
