// Package indexer turns uploaded resumes into embedded store entries.
package indexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperjump/resumatch/internal/models"
	"github.com/hyperjump/resumatch/pkg/utils"
)

const unknown = "unknown"

// ChunkResume splits a parsed resume into one profile chunk, one chunk per work experience
// (exp_<i>) and one per project (proj_<i>). Every chunk carries origin and the candidate
// name so retrieval results can be attributed.
func ChunkResume(doc *models.Resume, origin string) []models.Chunk {
	chunks := make([]models.Chunk, 0, 1+len(doc.WorkExperience)+len(doc.Projects))
	add := func(chunkType, text string) {
		chunks = append(chunks, models.Chunk{
			Filename:      origin,
			ChunkType:     chunkType,
			Text:          text,
			CandidateName: doc.Name,
		})
	}

	add(models.ChunkProfile, fmt.Sprintf(
		"Candidate Name: %s. Summary: %s. Skills: %s. Calculated Relevant Experience: %s years.",
		doc.Name, doc.Summary, utils.JoinNonEmpty(doc.Skills, ", "), formatYears(doc.TotalExperienceYears)))

	for i, exp := range doc.WorkExperience {
		add(fmt.Sprintf("%s_%d", models.ChunkExperience, i), fmt.Sprintf(
			"Work Experience: %s at %s. Type: %s. Duration: %s years. Responsibilities: %s",
			exp.JobTitle, exp.Company, experienceType(exp.ExperienceType), formatYears(exp.DurationYears),
			utils.JoinNonEmpty(exp.Responsibilities, " ")))
	}

	for i, proj := range doc.Projects {
		add(fmt.Sprintf("%s_%d", models.ChunkProject, i), fmt.Sprintf(
			"Project: %s. Description: %s. Tech: %s",
			proj.Name, proj.Description, utils.JoinNonEmpty(proj.Technologies, ", ")))
	}
	return chunks
}

// JobSearchQuery builds the retrieval query for a job description from its title, skills,
// technologies and experience requirement. It is empty when the description has none.
func JobSearchQuery(jd *models.JobDescription) string {
	var parts []string
	if t := strings.TrimSpace(jd.JobTitle); t != "" {
		parts = append(parts, "Job Title: "+t)
	}
	if s := utils.JoinNonEmpty(jd.RequiredSkills, ", "); s != "" {
		parts = append(parts, "Required Skills: "+s)
	}
	if s := utils.JoinNonEmpty(jd.KeyTechnologies, ", "); s != "" {
		parts = append(parts, "Technologies: "+s)
	}
	if y := jd.RequiredExperienceYears; y != nil && *y > 0 {
		parts = append(parts, "Experience: "+strconv.FormatFloat(*y, 'f', -1, 64)+"+ years")
	}
	if s := utils.JoinNonEmpty(jd.PreferredSkills, ", "); s != "" {
		parts = append(parts, "Preferred Skills: "+s)
	}
	return strings.Join(parts, ". ")
}

func formatYears(v *float64) string {
	if v == nil {
		return unknown
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func experienceType(t models.ExperienceType) string {
	if t == "" {
		return string(models.ExperienceUnknown)
	}
	return string(t)
}
