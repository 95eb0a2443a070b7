package rag

// Request represents a portfolio question.
type Request struct {
	// Message is the user's question. Leading and trailing whitespace is ignored.
	Message string `json:"message"`
	// TopK is the maximum number of retrieved chunks sent to the model. Zero means DefaultTopK.
	TopK int `json:"top_k,omitempty"`
}

// Source describes one context chunk the answer was grounded on.
type Source struct {
	// SourceName is the upload file name the chunk came from.
	SourceName string `json:"source_name"`
	// Score is the similarity score rounded to 4 decimals; 1.0 for the fixed background document.
	Score float64 `json:"score"`
	// Excerpt is the first 320 characters of the chunk, with "..." when longer.
	Excerpt string `json:"excerpt"`
}

// Response is the answer payload.
type Response struct {
	// Answer is the generated text after the quality gate.
	Answer string `json:"answer"`
	// Sources is empty unless source exposure is enabled.
	Sources []Source `json:"sources"`
}

// RetrievedChunk is one nearest-neighbour hit.
type RetrievedChunk struct {
	Content    string
	SourceName string
	// Distance is non-negative; smaller is closer.
	Distance float64
}

// Score maps Distance into (0, 1].
func (c RetrievedChunk) Score() float64 {
	return 1 / (1 + c.Distance)
}

// ContextChunk is a chunk that made it into the generation context.
type ContextChunk struct {
	Content    string
	SourceName string
	Score      float64
	// Background marks the fixed background document appended after ranked chunks.
	Background bool
}
