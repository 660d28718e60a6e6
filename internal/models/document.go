// Package models defines core data structures for parsed documents, chunks, store entries, and answers.
package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ExperienceType classifies a work-experience entry.
type ExperienceType string

const (
	ExperienceFullTime   ExperienceType = "full-time"
	ExperiencePartTime   ExperienceType = "part-time"
	ExperienceInternship ExperienceType = "internship"
	ExperienceFreelance  ExperienceType = "freelance"
	ExperienceContract   ExperienceType = "contract"
	ExperienceUnknown    ExperienceType = "unknown"
)

// Qualifies reports whether roles of this type count toward total experience.
func (t ExperienceType) Qualifies() bool {
	return t == ExperienceFullTime || t == ExperienceContract
}

// ParseExperienceType maps free-form labels ("Full Time", "fulltime", "Contractor") to a known type.
func ParseExperienceType(s string) ExperienceType {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "", "-", "", " ", "").Replace(norm)
	switch norm {
	case "fulltime", "permanent":
		return ExperienceFullTime
	case "parttime":
		return ExperiencePartTime
	case "internship", "intern":
		return ExperienceInternship
	case "freelance", "freelancer", "selfemployed":
		return ExperienceFreelance
	case "contract", "contractor":
		return ExperienceContract
	default:
		return ExperienceUnknown
	}
}

// Contact holds candidate contact fields.
type Contact struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LinkedIn string `json:"linkedin"`
}

// WorkExperience is one role on a resume. A nil DurationYears means the duration is unknown.
type WorkExperience struct {
	JobTitle         string         `json:"job_title"`
	Company          string         `json:"company"`
	Duration         string         `json:"duration"`
	ExperienceType   ExperienceType `json:"experience_type"`
	DurationYears    *float64       `json:"calculated_duration_years"`
	Responsibilities []string       `json:"responsibilities"`
}

// UnmarshalJSON accepts a duration sent as a number or numeric string; anything else is unknown.
func (w *WorkExperience) UnmarshalJSON(data []byte) error {
	type plain WorkExperience
	aux := struct {
		*plain
		DurationYears json.RawMessage `json:"calculated_duration_years"`
	}{plain: (*plain)(w)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	w.DurationYears = ParseYears(aux.DurationYears)
	return nil
}

// Project is one project on a resume.
type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
}

// Education is one education entry.
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// UnmarshalJSON accepts the year as a string or a number.
func (e *Education) UnmarshalJSON(data []byte) error {
	type plain Education
	aux := struct {
		*plain
		Year json.RawMessage `json:"year"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Year = looseString(aux.Year)
	return nil
}

// Resume is the parsed form of a candidate resume.
// A nil TotalExperienceYears means unknown; it is never silently zero.
type Resume struct {
	Name                 string           `json:"name"`
	Contact              Contact          `json:"contact"`
	Summary              string           `json:"summary"`
	TotalExperienceYears *float64         `json:"total_experience_years"`
	Skills               []string         `json:"skills"`
	Projects             []Project        `json:"projects"`
	WorkExperience       []WorkExperience `json:"work_experience"`
	Education            []Education      `json:"education"`
}

// UnmarshalJSON decodes total experience leniently, like WorkExperience durations.
func (r *Resume) UnmarshalJSON(data []byte) error {
	type plain Resume
	aux := struct {
		*plain
		TotalExperienceYears json.RawMessage `json:"total_experience_years"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.TotalExperienceYears = ParseYears(aux.TotalExperienceYears)
	return nil
}

// Normalize canonicalizes experience types, drops invalid durations, and recomputes
// TotalExperienceYears from qualifying roles (full-time and contract).
// The total is unknown when any qualifying role has an unknown duration.
func (r *Resume) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	var total float64
	known := true
	for i := range r.WorkExperience {
		exp := &r.WorkExperience[i]
		exp.ExperienceType = ParseExperienceType(string(exp.ExperienceType))
		if exp.DurationYears != nil && !validYears(*exp.DurationYears) {
			exp.DurationYears = nil
		}
		if !exp.ExperienceType.Qualifies() {
			continue
		}
		if exp.DurationYears == nil {
			known = false
			continue
		}
		total += *exp.DurationYears
	}
	if !known {
		r.TotalExperienceYears = nil
		return
	}
	total = math.Round(total*100) / 100
	r.TotalExperienceYears = &total
}

// JobDescription is the parsed form of a job posting.
type JobDescription struct {
	JobTitle                string   `json:"job_title"`
	Company                 string   `json:"company"`
	Location                string   `json:"location"`
	EmploymentType          string   `json:"employment_type"`
	ExperienceLevel         string   `json:"experience_level"`
	RequiredSkills          []string `json:"required_skills"`
	PreferredSkills         []string `json:"preferred_skills"`
	RequiredExperienceYears *float64 `json:"required_experience_years"`
	EducationRequirements   []string `json:"education_requirements"`
	Responsibilities        []string `json:"responsibilities"`
	Qualifications          []string `json:"qualifications"`
	Benefits                []string `json:"benefits"`
	SalaryRange             *string  `json:"salary_range"`
	Industry                string   `json:"industry"`
	Department              string   `json:"department"`
	KeyTechnologies         []string `json:"key_technologies"`
	SoftSkills              []string `json:"soft_skills"`
	Certifications          []string `json:"certifications"`
	Summary                 string   `json:"summary"`
}

// UnmarshalJSON decodes the experience requirement leniently.
func (j *JobDescription) UnmarshalJSON(data []byte) error {
	type plain JobDescription
	aux := struct {
		*plain
		RequiredExperienceYears json.RawMessage `json:"required_experience_years"`
	}{plain: (*plain)(j)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	j.RequiredExperienceYears = ParseYears(aux.RequiredExperienceYears)
	return nil
}

// Normalize trims the title and drops an invalid experience requirement.
func (j *JobDescription) Normalize() {
	j.JobTitle = strings.TrimSpace(j.JobTitle)
	if j.RequiredExperienceYears != nil && !validYears(*j.RequiredExperienceYears) {
		j.RequiredExperienceYears = nil
	}
}

func validYears(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// ParseYears reads a year count from a JSON number or a numeric string such as "2.5".
// null, absent, "unknown" and every other shape yield nil.
func ParseYears(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil || !validYears(f) {
		return nil
	}
	return &f
}

// looseString returns a JSON string as is and any other scalar as its literal text.
func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str)
	}
	if raw[0] == '{' || raw[0] == '[' {
		return ""
	}
	return string(raw)
}
