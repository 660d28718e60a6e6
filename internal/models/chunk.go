package models

// Chunk types. Experience and project chunks carry a positional suffix (exp_0, proj_2).
const (
	ChunkProfile    = "profile"
	ChunkExperience = "exp"
	ChunkProject    = "proj"
)

// Chunk is one retrievable unit of text with the identity needed for attribution.
type Chunk struct {
	Filename      string `json:"resume_filename"`
	ChunkType     string `json:"chunk_type"`
	Text          string `json:"text"`
	CandidateName string `json:"candidate_name"`
}

// StoreEntry is a persisted (embedding, chunk) pair stamped with the embedding model that produced it.
type StoreEntry struct {
	Embedding []float32 `json:"embedding"`
	Metadata  Chunk     `json:"metadata"`
	Model     string    `json:"model,omitempty"`
}

// StoreStatus is the read-only summary of the vector store.
type StoreStatus struct {
	Exists       bool   `json:"db_exists"`
	TotalResumes int    `json:"total_resumes"`
	TotalChunks  int    `json:"total_chunks"`
	SizeBytes    int64  `json:"size_bytes"`
	Error        string `json:"error,omitempty"`
}

// ResumeLink maps an ingested filename to its durable URL.
type ResumeLink struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}
