package service

import (
	"context"
	"errors"
	"testing"

	"claimlens-backend/models"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", "{\"a\": 1}"},
		{"surrounding prose", `Here is the result: {"a": 1}. Hope that helps!`, `{"a": 1}`},
		{"no object", "no json here", "no json here"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractJSONObject(tc.in); got != tc.want {
				t.Errorf("extractJSONObject = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestVerifyClaimParsesResponse(t *testing.T) {
	llm := &mockCompletion{fn: func(prompt string, opts CompletionOptions) (string, error) {
		if !opts.JSONMode {
			t.Error("verification should request JSON mode")
		}
		return `{
			"topic": "vaccine safety",
			"confidence": "High",
			"assessment": "The claim has been debunked by large cohort studies.",
			"evidence": ["2019 Danish cohort study of 657,461 children"],
			"consensus": "There is no evidence linking vaccines to autism."
		}`, nil
	}}

	v := verifyClaim(context.Background(), llm, "vaccines: Vaccines cause autism.")
	if v.Topic != "vaccine safety" {
		t.Errorf("topic = %q", v.Topic)
	}
	if v.Confidence != models.ConfidenceHigh {
		t.Errorf("confidence = %q, want High", v.Confidence)
	}
	if len(v.Evidence) != 1 {
		t.Errorf("evidence = %v", v.Evidence)
	}
}

func TestVerifyClaimDegradesOnCallFailure(t *testing.T) {
	llm := &mockCompletion{fn: func(string, CompletionOptions) (string, error) {
		return "", errors.New("provider unavailable")
	}}

	v := verifyClaim(context.Background(), llm, "vaccines: Vaccines cause autism.")
	if v.Confidence != models.ConfidenceLow {
		t.Errorf("confidence = %q, want Low", v.Confidence)
	}
	if v.Topic != "vaccines" {
		t.Errorf("topic = %q, want claim topic preserved", v.Topic)
	}
	if v.Assessment == "" || v.Consensus == "" {
		t.Error("degraded verification must stay well-formed")
	}
}

func TestVerifyClaimDegradesOnMalformedJSON(t *testing.T) {
	llm := &mockCompletion{fn: func(string, CompletionOptions) (string, error) {
		return "certainly! the claim is {broken", nil
	}}

	v := verifyClaim(context.Background(), llm, "vaccines: Vaccines cause autism.")
	if v.Confidence != models.ConfidenceLow {
		t.Errorf("confidence = %q, want Low", v.Confidence)
	}
}

func TestVerifyClaimDefaultsMissingFields(t *testing.T) {
	llm := &mockCompletion{fn: func(string, CompletionOptions) (string, error) {
		return `{"confidence": "Certain"}`, nil
	}}

	v := verifyClaim(context.Background(), llm, "vaccines: Vaccines cause autism.")
	if v.Topic != "vaccines" {
		t.Errorf("topic = %q, want fallback to claim topic", v.Topic)
	}
	if v.Confidence != models.ConfidenceLow {
		t.Errorf("unknown confidence should default to Low, got %q", v.Confidence)
	}
	if v.Assessment == "" || v.Consensus == "" {
		t.Error("missing fields should be defaulted")
	}
}
