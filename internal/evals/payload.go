// Package evals orchestrates a single evaluation: build the agent
// invocation payload, call the upstream endpoint, measure latency, extract
// a displayable answer, and record the outcome.
package evals

import (
	"regexp"
	"strings"
)

// Static organisation metadata sent with every invocation.
const (
	organisationID = 23
	agentName      = "Nova"
	payloadSource  = "evaldeck-dashboard"
)

// Guidelines are the four editable prompt-configuration text blocks.
type Guidelines struct {
	Role                 string `yaml:"role"`
	Communication        string `yaml:"communication"`
	ContextClarification string `yaml:"context_clarification"`
	HandoverEscalation   string `yaml:"handover_escalation"`
}

// Message is a single chat message in the invocation payload.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Guidance is one named, individually-enabled guideline entry.
type Guidance struct {
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
	Text    string `json:"text"`
}

// ToolConfig describes one tool the agent may call, with its static
// argument template.
type ToolConfig struct {
	Name      string         `json:"name"`
	Enabled   bool           `json:"enabled"`
	Internal  bool           `json:"internal"`
	Arguments map[string]any `json:"arguments"`
}

// AgentConfig is the prompt-configuration block of the payload.
type AgentConfig struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Guidances   []Guidance   `json:"guidances"`
	ToolsConfig []ToolConfig `json:"toolsConfig"`
}

// Metadata tags the invocation's origin.
type Metadata struct {
	Source string `json:"source"`
}

// InvocationRequest is the full agent-invocation payload.
type InvocationRequest struct {
	Messages       []Message   `json:"messages"`
	Model          string      `json:"model"`
	OrganisationID int         `json:"organisation_id"`
	UseNewAgent    bool        `json:"use_new_agent"`
	AgentConfig    AgentConfig `json:"agent_config"`
	Metadata       Metadata    `json:"metadata"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeModelLabel turns a human-readable model label into the wire
// identifier: lower-cased, internal whitespace runs replaced with hyphens
// ("Claude 3 Haiku" becomes "claude-3-haiku").
func NormalizeModelLabel(label string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(label), "-")
}

// BuildInvocationRequest assembles the payload for one developer question:
// the question as a single user message, the guidelines as enabled
// guidance entries, the fixed tool-configuration block, and static
// organisation metadata.
func BuildInvocationRequest(question, modelLabel string, g Guidelines) *InvocationRequest {
	return &InvocationRequest{
		Messages: []Message{
			{Role: "user", Content: question},
		},
		Model:          NormalizeModelLabel(modelLabel),
		OrganisationID: organisationID,
		UseNewAgent:    true,
		AgentConfig: AgentConfig{
			Name:        agentName,
			Description: g.Role,
			Guidances: []Guidance{
				{Type: "context", Enabled: true, Text: g.ContextClarification},
				{Type: "communication", Enabled: true, Text: g.Communication},
				{Type: "escalation", Enabled: true, Text: g.HandoverEscalation},
			},
			ToolsConfig: []ToolConfig{
				{
					Name:    "find_answer",
					Enabled: true,
					Arguments: map[string]any{
						"ticketId":       "TKTID",
						"organisationId": organisationID,
					},
				},
				{
					Name:     "handover_and_escalate",
					Enabled:  true,
					Internal: true,
					Arguments: map[string]any{
						"channel_id":     "C084C3HEBQS",
						"message":        "",
						"type":           "slack",
						"ticketId":       "TKTID",
						"organisationId": organisationID,
					},
				},
				{
					Name:     "close_ticket",
					Enabled:  true,
					Internal: true,
					Arguments: map[string]any{
						"status":         "closed",
						"source":         "Ticket Answer Agent",
						"ticketId":       "TKTID",
						"organisationId": organisationID,
					},
				},
			},
		},
		Metadata: Metadata{Source: payloadSource},
	}
}
