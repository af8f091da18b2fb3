package evals

import (
	"encoding/json"
	"testing"
)

func TestNormalizeModelLabel(t *testing.T) {
	tests := []struct {
		label    string
		expected string
	}{
		{"GPT-5", "gpt-5"},
		{"Claude 3 Haiku", "claude-3-haiku"},
		{"Claude 3.5 Sonnet", "claude-3.5-sonnet"},
		{"x-ai/grok-code-fast-1", "x-ai/grok-code-fast-1"},
		{"Two  Spaces", "two-spaces"},
		{"tabs\tand\nnewlines", "tabs-and-newlines"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := NormalizeModelLabel(tt.label); got != tt.expected {
				t.Errorf("NormalizeModelLabel(%q) = %q, want %q", tt.label, got, tt.expected)
			}
		})
	}
}

func TestBuildInvocationRequest(t *testing.T) {
	g := Guidelines{
		Role:                 "You are a support assistant.",
		Communication:        "Be precise.",
		ContextClarification: "Ask before assuming.",
		HandoverEscalation:   "Escalate billing disputes.",
	}
	req := BuildInvocationRequest("Why does OAuth fail?", "GPT 5", g)

	if len(req.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(req.Messages))
	}
	if req.Messages[0].Role != "user" || req.Messages[0].Content != "Why does OAuth fail?" {
		t.Errorf("message = %+v", req.Messages[0])
	}
	if req.Model != "gpt-5" {
		t.Errorf("model = %q, want %q", req.Model, "gpt-5")
	}
	if !req.UseNewAgent {
		t.Error("UseNewAgent = false")
	}
	if req.AgentConfig.Description != g.Role {
		t.Errorf("agent description = %q, want role guideline", req.AgentConfig.Description)
	}

	wantGuidances := []Guidance{
		{Type: "context", Enabled: true, Text: g.ContextClarification},
		{Type: "communication", Enabled: true, Text: g.Communication},
		{Type: "escalation", Enabled: true, Text: g.HandoverEscalation},
	}
	if len(req.AgentConfig.Guidances) != len(wantGuidances) {
		t.Fatalf("got %d guidances, want %d", len(req.AgentConfig.Guidances), len(wantGuidances))
	}
	for i, want := range wantGuidances {
		if req.AgentConfig.Guidances[i] != want {
			t.Errorf("guidances[%d] = %+v, want %+v", i, req.AgentConfig.Guidances[i], want)
		}
	}

	wantTools := []struct {
		name     string
		internal bool
	}{
		{"find_answer", false},
		{"handover_and_escalate", true},
		{"close_ticket", true},
	}
	if len(req.AgentConfig.ToolsConfig) != len(wantTools) {
		t.Fatalf("got %d tools, want %d", len(req.AgentConfig.ToolsConfig), len(wantTools))
	}
	for i, want := range wantTools {
		tool := req.AgentConfig.ToolsConfig[i]
		if tool.Name != want.name || tool.Internal != want.internal || !tool.Enabled {
			t.Errorf("tools[%d] = %+v", i, tool)
		}
		if tool.Arguments["ticketId"] != "TKTID" {
			t.Errorf("tools[%d] missing ticket argument template", i)
		}
	}
}

func TestInvocationRequestWireShape(t *testing.T) {
	req := BuildInvocationRequest("Q", "GPT-5", Guidelines{Role: "R"})
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	for _, key := range []string{"messages", "model", "organisation_id", "use_new_agent", "agent_config", "metadata"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("payload missing top-level %q field", key)
		}
	}
	agentCfg, ok := raw["agent_config"].(map[string]any)
	if !ok {
		t.Fatal("agent_config is not an object")
	}
	if _, ok := agentCfg["toolsConfig"]; !ok {
		t.Error("agent_config missing toolsConfig field")
	}
	if raw["organisation_id"] != float64(23) {
		t.Errorf("organisation_id = %v", raw["organisation_id"])
	}
}
