package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/resumatch/internal/models"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteAnswer(t *testing.T) {
	a := &models.Answer{
		AgentUsed:   "skill_matcher",
		Answer:      "Candidate Name: Alice Smith knows Python.\n",
		PreviewURLs: []models.Preview{{Name: "Alice Smith", ResumeURL: "/files/alice.pdf"}},
	}

	var buf bytes.Buffer
	if err := WriteAnswer(&buf, a, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"Agent: skill_matcher", "Alice Smith knows Python.", "Resumes:", "/files/alice.pdf"} {
		if !strings.Contains(buf.String(), sub) {
			t.Errorf("text output missing %q:\n%s", sub, buf.String())
		}
	}

	buf.Reset()
	if err := WriteAnswer(&buf, &models.Answer{AgentUsed: "general_analyzer", Answer: "none"}, OutputText); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Resumes:") {
		t.Errorf("no previews should print no resume section:\n%s", buf.String())
	}

	buf.Reset()
	if err := WriteAnswer(&buf, a, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.Answer
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.AgentUsed != a.AgentUsed || len(decoded.PreviewURLs) != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteBatch(t *testing.T) {
	r := &models.BatchResult{
		Message:        "Files uploaded and processed successfully.",
		ProcessedFiles: []string{"alice.pdf", "bob.docx"},
		Failures:       []models.FileFailure{{Filename: "scan.pdf", Stage: "extract", Error: "no text could be extracted"}},
		TotalChunks:    9,
	}
	var buf bytes.Buffer
	if err := WriteBatch(&buf, r, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{"processed: 2 file(s), 9 chunk(s)", "ok    alice.pdf", "failed: 1 file(s)", "scan.pdf [extract]"} {
		if !strings.Contains(out, sub) {
			t.Errorf("output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteStatus(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteStatus(&buf, models.StoreStatus{}, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "db_exists:      false") || strings.Contains(buf.String(), "total_chunks") {
		t.Errorf("missing store output:\n%s", buf.String())
	}

	buf.Reset()
	st := models.StoreStatus{Exists: true, TotalResumes: 3, TotalChunks: 7, SizeBytes: 2048, Error: "entry 2: missing text"}
	if err := WriteStatus(&buf, st, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"total_resumes:  3", "total_chunks:   7", "size_bytes:     2048", "error:          entry 2"} {
		if !strings.Contains(buf.String(), sub) {
			t.Errorf("output missing %q:\n%s", sub, buf.String())
		}
	}

	buf.Reset()
	if err := WriteStatus(&buf, st, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["db_exists"] != true || decoded["total_chunks"] != float64(7) {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestWriteResumes(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResumes(&buf, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "no resumes" {
		t.Errorf("got %q", buf.String())
	}

	buf.Reset()
	links := []models.ResumeLink{{Filename: "a.pdf", URL: "/files/a.pdf"}, {Filename: "longer.docx", URL: "/files/longer.docx"}}
	if err := WriteResumes(&buf, links, OutputText); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[0] != "a.pdf        /files/a.pdf" {
		t.Errorf("lines = %q", lines)
	}
}

func TestWriteJobMatch(t *testing.T) {
	m := &models.JobMatch{
		JobDescription: &models.JobDescription{JobTitle: "Backend Engineer", Company: "Acme", RequiredSkills: []string{"Go", " ", "SQL"}},
		SearchQuery:    "Job Title: Backend Engineer. Required Skills: Go, SQL",
		Results:        &models.Answer{AgentUsed: "skill_matcher", Answer: "Bob Jones"},
	}
	var buf bytes.Buffer
	if err := WriteJobMatch(&buf, m, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"Job: Backend Engineer @ Acme", "Required: Go, SQL", "Query: Job Title", "Agent: skill_matcher", "Bob Jones"} {
		if !strings.Contains(buf.String(), sub) {
			t.Errorf("output missing %q:\n%s", sub, buf.String())
		}
	}
}
