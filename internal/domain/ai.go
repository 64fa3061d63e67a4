package domain

import "time"

// Generation is the output of an AI generation endpoint
type Generation struct {
	Content string `json:"generated_content"`
}

// GenerationKind selects which generator produced some content
type GenerationKind string

const (
	KindBackstory GenerationKind = "character-backstory"
	KindAdventure GenerationKind = "location-adventure-story"
)

// Label returns a human readable name for the kind
func (k GenerationKind) Label() string {
	switch k {
	case KindBackstory:
		return "Character backstory"
	case KindAdventure:
		return "Location adventure"
	default:
		return string(k)
	}
}

// JudgeMetric is one LLM-as-judge sub-score
type JudgeMetric struct {
	Score        float64  `json:"score"`
	Reasoning    string   `json:"reasoning"`
	Issues       []string `json:"issues,omitempty"`
	Strengths    []string `json:"strengths,omitempty"`
	Improvements []string `json:"improvements,omitempty"`
}

// EvaluationRequest asks the server to score generated content
type EvaluationRequest struct {
	GeneratedOutput          string         `json:"generated_output"`
	ExpectedOutput           *string        `json:"expected_output"`
	ExpectedOutputEmbeddings []float64      `json:"expected_output_embeddings"`
	Metadata                 map[string]any `json:"metadata,omitempty"`
}

// Evaluation holds automatic metrics plus optional judge feedback
type Evaluation struct {
	Metrics         map[string]float64     `json:"evaluation_metrics"`
	Judge           map[string]JudgeMetric `json:"llm_judge_metrics,omitempty"`
	GeneratedOutput string                 `json:"generated_output"`
	ExpectedOutput  *string                `json:"expected_output,omitempty"`
}

// AIHealth reports whether the generation backend is usable
type AIHealth struct {
	Status      string `json:"status"`
	AzureOpenAI bool   `json:"azure_openai"`
}

// Available reports whether generation requests are expected to succeed
func (h AIHealth) Available() bool {
	return h.AzureOpenAI
}

// HistoryEntry is a locally persisted generation (and its evaluation, if any)
type HistoryEntry struct {
	ID          string         `json:"id"`
	Kind        GenerationKind `json:"kind"`
	SubjectID   int            `json:"subject_id"`
	SubjectName string         `json:"subject_name"`
	Content     string         `json:"content"`
	Evaluation  *Evaluation    `json:"evaluation,omitempty"`
	SavedToNote bool           `json:"saved_to_note"`
	CreatedAt   time.Time      `json:"created_at"`
}
