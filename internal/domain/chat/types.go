package chat

import (
	"time"

	"github.com/yanqian/snow-agent/pkg/metrics"
)

// Stage identifies a step of the answer pipeline. A request walks the stages
// in order; failures carry the stage they happened in.
type Stage string

const (
	StageReceived        Stage = "RECEIVED"
	StageEmbedding       Stage = "EMBEDDING"
	StageRetrieving      Stage = "RETRIEVING"
	StageBuildingContext Stage = "BUILDING_CONTEXT"
	StageGenerating      Stage = "GENERATING"
	StageLogging         Stage = "LOGGING"
	StageDone            Stage = "DONE"
)

// FAQRecord is a knowledge base entry. Rows are written by the ingestion job
// and never mutated on the serving path.
type FAQRecord struct {
	ID        int64
	Question  string
	Answer    string
	Embedding []float32
}

// RetrievedMatch pairs a knowledge base entry with its similarity to the
// query embedding. The stored embedding is not carried along.
type RetrievedMatch struct {
	Question   string
	Answer     string
	Similarity float64
}

// Request is the chat payload received at the HTTP boundary.
type Request struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId"`
	TopK      int    `json:"topK"`
}

// Response is returned once the pipeline reaches DONE.
type Response struct {
	SessionID  string              `json:"sessionId"`
	Answer     string              `json:"answer"`
	Sources    []string            `json:"sources,omitempty"`
	Blocked    bool                `json:"blocked,omitempty"`
	Valid      bool                `json:"valid"`
	Issues     string              `json:"issues,omitempty"`
	LatencyMs  int64               `json:"latencyMs"`
	TokenUsage *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// InteractionRecord is appended to the chat log sink after a completed
// exchange.
type InteractionRecord struct {
	SessionID        string
	Question         string
	RetrievedContext string
	Answer           string
	Blocked          bool
	CreatedAt        time.Time
}

// TrendingQuestion is a frequently asked question with its hit count.
type TrendingQuestion struct {
	Question string `json:"question"`
	Count    int64  `json:"count"`
}

// Prompt carries the assembled generation input.
type Prompt struct {
	System string
	User   string
}

// Text renders the prompt as a single block, used for token accounting.
func (p Prompt) Text() string {
	return p.System + "\n" + p.User
}
