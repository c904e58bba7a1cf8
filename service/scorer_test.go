package service

import (
	"context"
	"errors"
	"testing"

	"claimlens-backend/models"
)

func TestParseScore(t *testing.T) {
	cases := []struct {
		response string
		want     float64
		wantErr  bool
	}{
		{"7", 7, false},
		{"7.5", 7.5, false},
		{" 8 \n", 8, false},
		{"9.", 9, false},
		{"3 out of 10", 3, false},
		{"12", 10, false},
		{"0.2", 1, false},
		{"-4", 1, false},
		{"high", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := parseScore(tc.response)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseScore(%q) expected error, got %v", tc.response, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseScore(%q) unexpected error: %v", tc.response, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseScore(%q) = %v, want %v", tc.response, got, tc.want)
		}
	}
}

func TestScoreClaimRiskDegradesToDefault(t *testing.T) {
	failing := &mockCompletion{fn: func(string, CompletionOptions) (string, error) {
		return "", errors.New("provider unavailable")
	}}
	if got := scoreClaimRisk(context.Background(), failing, "vaccines: Vaccines are safe."); got != defaultRiskScore {
		t.Errorf("got %v, want default %v", got, defaultRiskScore)
	}

	garbage := &mockCompletion{fn: func(string, CompletionOptions) (string, error) {
		return "I would rather not say", nil
	}}
	if got := scoreClaimRisk(context.Background(), garbage, "vaccines: Vaccines are safe."); got != defaultRiskScore {
		t.Errorf("got %v, want default %v", got, defaultRiskScore)
	}
}

func TestSortByRiskDescendingIsStable(t *testing.T) {
	claims := []models.ScoredClaim{
		{Claim: "a", RiskScore: 3},
		{Claim: "b", RiskScore: 9},
		{Claim: "c", RiskScore: 5},
		{Claim: "d", RiskScore: 5},
	}
	sortByRiskDescending(claims)

	wantOrder := []string{"b", "c", "d", "a"}
	for i, want := range wantOrder {
		if claims[i].Claim != want {
			t.Errorf("position %d = %q, want %q", i, claims[i].Claim, want)
		}
	}
}
