package models

import "time"

// Preview links a candidate named in an answer to their source document.
type Preview struct {
	Name      string `json:"name"`
	ResumeURL string `json:"resume_url"`
}

// Answer is the response for a recruiter query.
type Answer struct {
	AgentUsed   string    `json:"agent_used"`
	Answer      string    `json:"answer"`
	PreviewURLs []Preview `json:"preview_urls"`
}

// JobMatch is the result of matching a parsed job description against the store.
type JobMatch struct {
	JobDescription *JobDescription `json:"parsed_jd"`
	SearchQuery    string          `json:"search_query_generated"`
	Results        *Answer         `json:"matching_results"`
}

// FileFailure records why one file in a batch was not committed.
type FileFailure struct {
	Filename string `json:"filename"`
	Stage    string `json:"stage"`
	Error    string `json:"error"`
}

// BatchResult is the outcome of an ingestion batch. Failures may be non-empty on success.
type BatchResult struct {
	BatchID        string        `json:"batch_id"`
	Message        string        `json:"message"`
	ProcessedFiles []string      `json:"processed_files"`
	Failures       []FileFailure `json:"failures"`
	TotalChunks    int           `json:"total_chunks"`
	Duration       time.Duration `json:"-"`
}
