// Package cli formats API results for the terminal and talks to a running resumatch server.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/resumatch/internal/models"
	"github.com/hyperjump/resumatch/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is indented JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

const rule = "─────────────────────────────────────────────────────────"

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAnswer writes a search answer and the resume links for the candidates it names.
func WriteAnswer(w io.Writer, a *models.Answer, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, a)
	}
	fmt.Fprintf(w, "\nAgent: %s\n%s\n\n%s\n", a.AgentUsed, rule, strings.TrimSpace(a.Answer))
	writePreviews(w, a.PreviewURLs)
	return nil
}

func writePreviews(w io.Writer, previews []models.Preview) {
	if len(previews) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\nResumes:\n", rule)
	for _, p := range previews {
		fmt.Fprintf(w, "  %s  %s\n", p.Name, p.ResumeURL)
	}
}

// WriteBatch writes the outcome of an ingestion batch.
func WriteBatch(w io.Writer, r *models.BatchResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, r)
	}
	fmt.Fprintf(w, "%s\n", r.Message)
	fmt.Fprintf(w, "processed: %d file(s), %d chunk(s)\n", len(r.ProcessedFiles), r.TotalChunks)
	for _, f := range r.ProcessedFiles {
		fmt.Fprintf(w, "  ok    %s\n", f)
	}
	writeFailures(w, r.Failures)
	return nil
}

// WriteFailures writes per-file failures, for batches that committed nothing.
func WriteFailures(w io.Writer, failures []models.FileFailure, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]any{"failures": failures})
	}
	writeFailures(w, failures)
	return nil
}

func writeFailures(w io.Writer, failures []models.FileFailure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "failed: %d file(s)\n", len(failures))
	for _, f := range failures {
		fmt.Fprintf(w, "  fail  %s [%s] %s\n", f.Filename, f.Stage, utils.Truncate(f.Error, 160))
	}
}

// WriteStatus writes the vector store summary.
func WriteStatus(w io.Writer, st models.StoreStatus, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "db_exists:      %t\n", st.Exists)
	if !st.Exists {
		fmt.Fprintln(w, "# no resumes ingested yet")
		return nil
	}
	fmt.Fprintf(w, "total_resumes:  %d\n", st.TotalResumes)
	fmt.Fprintf(w, "total_chunks:   %d\n", st.TotalChunks)
	fmt.Fprintf(w, "size_bytes:     %d\n", st.SizeBytes)
	if st.Error != "" {
		fmt.Fprintf(w, "error:          %s\n", st.Error)
	}
	return nil
}

// WriteResumes writes the ingested resume links.
func WriteResumes(w io.Writer, links []models.ResumeLink, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]any{"resumes": links})
	}
	if len(links) == 0 {
		fmt.Fprintln(w, "no resumes")
		return nil
	}
	width := 0
	for _, l := range links {
		if len(l.Filename) > width {
			width = len(l.Filename)
		}
	}
	for _, l := range links {
		fmt.Fprintf(w, "%-*s  %s\n", width, l.Filename, l.URL)
	}
	return nil
}

// WriteJobMatch writes the parsed job summary, the generated query and the answer.
func WriteJobMatch(w io.Writer, m *models.JobMatch, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, m)
	}
	jd := m.JobDescription
	if jd != nil {
		title := jd.JobTitle
		if jd.Company != "" {
			title += " @ " + jd.Company
		}
		fmt.Fprintf(w, "Job: %s\n", title)
		if s := utils.JoinNonEmpty(jd.RequiredSkills, ", "); s != "" {
			fmt.Fprintf(w, "Required: %s\n", s)
		}
	}
	fmt.Fprintf(w, "Query: %s\n", m.SearchQuery)
	if m.Results == nil {
		return nil
	}
	return WriteAnswer(w, m.Results, OutputText)
}
