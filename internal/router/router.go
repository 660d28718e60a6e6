// Package router classifies recruiter queries into specialized agent roles.
package router

import (
	"context"
	"strings"

	"github.com/hyperjump/resumatch/internal/llm"
	"go.uber.org/zap"
)

// Agent is a specialized answering role.
type Agent string

// The closed set of agents. Route never returns anything else.
const (
	SkillMatcher       Agent = "skill_matcher"
	ExperienceAnalyzer Agent = "experience_analyzer"
	RelevancyScorer    Agent = "relevancy_scorer"
	SeniorityDetector  Agent = "seniority_detector"
	GeneralAnalyzer    Agent = "general_analyzer"
)

// Agents lists every agent in classification-prompt order.
var Agents = []Agent{SkillMatcher, ExperienceAnalyzer, RelevancyScorer, SeniorityDetector, GeneralAnalyzer}

var prompts = map[Agent]string{
	SkillMatcher:       "You are an AI assistant specializing in matching technical skills. Compare the skills each candidate lists and demonstrates against what the recruiter is asking for.",
	ExperienceAnalyzer: "You are an AI assistant specializing in analyzing work experience. Focus on roles, employment types, durations and responsibilities.",
	RelevancyScorer:    "You are an AI assistant that scores and ranks candidates. Rank the candidates by how well they fit the request and explain each score briefly.",
	SeniorityDetector:  "You are an AI assistant that detects job seniority. Judge each candidate's level from their experience, scope and responsibilities.",
	GeneralAnalyzer:    "You are a world-class HR AI Assistant. Answer the recruiter's question accurately using only the candidate information provided.",
}

const (
	classifySystemPrompt = "Classify the HR query into one of: skill_matcher, experience_analyzer, relevancy_scorer, seniority_detector, general_analyzer. Return ONLY the label."
	classifyMaxTokens    = 20
)

// Router picks an agent for a query with one short classification call.
type Router struct {
	client llm.Client
	model  string
	logger *zap.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithModel overrides the client's default model for classification.
func WithModel(model string) Option {
	return func(r *Router) { r.model = model }
}

// New returns a Router backed by client.
func New(client llm.Client, opts ...Option) *Router {
	r := &Router{client: client, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route returns the agent for query. Empty queries, failed calls and unrecognized labels
// all fall back to GeneralAnalyzer; Route never fails.
func (r *Router) Route(ctx context.Context, query string) Agent {
	query = strings.TrimSpace(query)
	if query == "" {
		return GeneralAnalyzer
	}
	reply, err := r.client.Complete(ctx, llm.Request{
		System:    classifySystemPrompt,
		User:      query,
		MaxTokens: classifyMaxTokens,
		Model:     r.model,
	})
	if err != nil {
		r.logger.Warn("query routing failed, using general_analyzer", zap.Error(err))
		return GeneralAnalyzer
	}
	agent, ok := Parse(reply)
	if !ok {
		r.logger.Warn("router returned unknown agent, using general_analyzer", zap.String("reply", reply))
		return GeneralAnalyzer
	}
	r.logger.Debug("query routed", zap.String("agent", string(agent)))
	return agent
}

// Parse normalizes a classifier reply and reports whether it names a known agent.
func Parse(reply string) (Agent, bool) {
	s := strings.ToLower(strings.TrimSpace(reply))
	s = strings.NewReplacer(`"`, "", "'", "", "`", "").Replace(s)
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	a := Agent(s)
	if _, ok := prompts[a]; ok {
		return a, true
	}
	return GeneralAnalyzer, false
}

// Prompt returns the system prompt for agent, or the general analyzer's for unknown agents.
func Prompt(agent Agent) string {
	if p, ok := prompts[agent]; ok {
		return p
	}
	return prompts[GeneralAnalyzer]
}
