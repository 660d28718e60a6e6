// Package parser turns extracted resume and job description text into structured records
// through a language model, with one repair attempt for malformed JSON.
package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/resumatch/internal/llm"
	"github.com/hyperjump/resumatch/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrEmptyInput is returned when the text to parse is blank.
	ErrEmptyInput = errors.New("no text to parse")
	// ErrParseFailure is returned when no valid record could be produced.
	ErrParseFailure = errors.New("could not parse document")

	errEmptyReply = errors.New("empty reply")
)

// Default completion budgets.
const (
	resumeMaxTokens         = 4096
	jobDescriptionMaxTokens = 4096
)

// Parser extracts structured records with an llm.Client.
type Parser struct {
	client llm.Client
	model  string
	logger *zap.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the audit logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// WithModel overrides the client's default model for parse calls.
func WithModel(model string) Option {
	return func(p *Parser) { p.model = model }
}

// New returns a Parser using client.
func New(client llm.Client, opts ...Option) *Parser {
	p := &Parser{client: client, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseResume extracts a resume. The returned record is normalized and has a name.
func (p *Parser) ParseResume(ctx context.Context, text string) (*models.Resume, error) {
	r, err := parse[models.Resume](ctx, p, "resume", resumeSystemPrompt, resumeUserPrefix, text, resumeMaxTokens)
	if err != nil {
		return nil, err
	}
	r.Normalize()
	if r.Name == "" {
		return nil, fmt.Errorf("%w: resume has no candidate name", ErrParseFailure)
	}
	p.logger.Info("resume parsed", zap.String("name", r.Name), zap.Any("record", r))
	return r, nil
}

// ParseJobDescription extracts a job description. The record has a title or at least one
// required skill.
func (p *Parser) ParseJobDescription(ctx context.Context, text string) (*models.JobDescription, error) {
	jd, err := parse[models.JobDescription](ctx, p, "job description", jobDescriptionSystemPrompt, jobDescriptionUserPrefix, text, jobDescriptionMaxTokens)
	if err != nil {
		return nil, err
	}
	jd.Normalize()
	if jd.JobTitle == "" && len(jd.RequiredSkills) == 0 {
		return nil, fmt.Errorf("%w: job description has no title or required skills", ErrParseFailure)
	}
	p.logger.Info("job description parsed", zap.String("job_title", jd.JobTitle), zap.Any("record", jd))
	return jd, nil
}

// parse runs the extraction call and, if the reply does not decode, exactly one repair call.
func parse[T any](ctx context.Context, p *Parser, kind, system, userPrefix, text string, maxTokens int) (*T, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	raw, err := p.client.Complete(ctx, llm.Request{
		System:    system,
		User:      userPrefix + text,
		JSON:      true,
		MaxTokens: maxTokens,
		Model:     p.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s extraction: %w", ErrParseFailure, kind, err)
	}

	res := Decode[T](raw)
	if res.Status == StatusNeedsRepair {
		p.logger.Warn("model reply is not valid JSON, attempting repair",
			zap.String("kind", kind), zap.Error(res.Err))
		res = repair(ctx, p, system, res, maxTokens)
	}
	if res.Status != StatusParsed {
		return nil, fmt.Errorf("%w: %s: %w", ErrParseFailure, kind, res.Err)
	}
	return res.Value, nil
}

// repair asks the model once to fix a malformed reply. Anything but a clean decode is
// StatusFailed.
func repair[T any](ctx context.Context, p *Parser, system string, prev Result[T], maxTokens int) Result[T] {
	raw, err := p.client.Complete(ctx, llm.Request{
		System:    repairSystemPrompt + system,
		User:      prev.Raw,
		JSON:      true,
		MaxTokens: maxTokens,
		Model:     p.model,
	})
	if err != nil {
		return Result[T]{Status: StatusFailed, Raw: prev.Raw, Err: fmt.Errorf("repair: %w", err)}
	}
	res := Decode[T](raw)
	if res.Status != StatusParsed {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("repair: %w", res.Err)
	}
	return res
}
