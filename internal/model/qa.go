package model

// QAPair is a stored question/answer pair with its embedding and provenance.
// Pairs are immutable once stored; they only ever disappear when their whole
// source file is deleted.
type QAPair struct {
	ID             int64     `json:"id"`
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	SourceFile     string    `json:"source_file"`
	Embedding      []float32 `json:"-"`
	EmbeddingModel string    `json:"-"`
	CreatedAt      int64     `json:"created_at"`
}

// MatchResult is a per-query view over a stored pair. Similarity is the
// cosine similarity rescaled to 0..100.
type MatchResult struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	SourceFile string `json:"source"`
	Similarity int    `json:"similarity"`
}

type AnswerResult struct {
	Question        string        `json:"question"`
	SuggestedAnswer string        `json:"suggested_answer"`
	Confidence      int           `json:"confidence"`
	Reasoning       string        `json:"reasoning"`
	NeedsReview     bool          `json:"needs_review"`
	SourceQuestions []MatchResult `json:"source_questions"`
}

type Summary struct {
	HighConfidence   int `json:"high_confidence"`
	MediumConfidence int `json:"medium_confidence"`
	LowConfidence    int `json:"low_confidence"`
	NeedsReview      int `json:"needs_review"`
}

type KnowledgeStats struct {
	TotalQAPairs int `json:"total_qa_pairs"`
	SourceFiles  int `json:"source_files"`
}

// ExtractedQA is what document parsers hand back; the answer may be empty
// when a questionnaire is being extracted for filling.
type ExtractedQA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
