package service

import (
	"fmt"
	"strings"

	"claimlens-backend/models"
)

// matchTimestamps finds transcript segments whose text mentions the claim
// topic and returns their start times as HH:MM:SS strings
func matchTimestamps(topic string, segments []models.TranscriptSegment) []string {
	words := strings.Fields(strings.ToLower(topic))
	if len(words) == 0 || len(segments) == 0 {
		return nil
	}

	var stamps []string
	for _, seg := range segments {
		lowered := strings.ToLower(seg.Text)
		for _, word := range words {
			if len(word) < 3 {
				continue
			}
			if strings.Contains(lowered, word) {
				stamps = append(stamps, formatTimestamp(seg.Start))
				break
			}
		}
		if len(stamps) >= 5 {
			break
		}
	}
	return stamps
}

func formatTimestamp(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// assembleSection combines verification, sources and the agreement
// classification into one immutable report section
func assembleSection(claim models.ScoredClaim, verification models.Verification, sources []models.Source, segments []models.TranscriptSegment, agreementCfg AgreementConfig) models.ReportSection {
	_, text, ok := ParseClaim(claim.Claim)
	if !ok {
		text = claim.Claim
	}

	status := ClassifyAgreement(verification.Assessment, verification.Consensus, agreementCfg)

	return models.ReportSection{
		Title:           verification.Topic,
		Summary:         text,
		Consensus:       verification.Consensus,
		Assessment:      verification.Assessment,
		Confidence:      verification.Confidence,
		Evidence:        verification.Evidence,
		Sources:         sources,
		AgreementStatus: status,
		Color:           models.AgreementColor(status),
		RiskScore:       claim.RiskScore,
		Timestamps:      matchTimestamps(verification.Topic, segments),
	}
}

// RenderMarkdown renders a final report as a markdown document, the format
// consumed by the extension's export view
func RenderMarkdown(report *models.FinalReport) string {
	var b strings.Builder

	b.WriteString("# Video Claim Analysis Report\n\n")
	if report.Title != "" {
		b.WriteString(fmt.Sprintf("**Video:** %s\n\n", report.Title))
	}
	if report.Summary != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(report.Summary)
		b.WriteString("\n\n")
	}

	if len(report.Claims) == 0 {
		if report.Message != "" {
			b.WriteString(report.Message)
			b.WriteString("\n")
		}
		return b.String()
	}

	b.WriteString("## Claims and Their Evaluation\n\n")
	for _, section := range report.Claims {
		b.WriteString(fmt.Sprintf("### %s\n\n", section.Title))
		b.WriteString(fmt.Sprintf("**Claim:** %s\n\n", section.Summary))
		b.WriteString(fmt.Sprintf("**Verdict:** %s (confidence: %s)\n\n", section.AgreementStatus, section.Confidence))
		b.WriteString(fmt.Sprintf("**Assessment:** %s\n\n", section.Assessment))
		b.WriteString(fmt.Sprintf("**Scientific consensus:** %s\n\n", section.Consensus))
		if len(section.Timestamps) > 0 {
			b.WriteString(fmt.Sprintf("**Timestamps:** %s\n\n", strings.Join(section.Timestamps, ", ")))
		}
		if len(section.Sources) > 0 {
			b.WriteString("**Sources:**\n")
			for _, source := range section.Sources {
				b.WriteString(fmt.Sprintf("- [%s](%s)", source.Title, source.URL))
				if source.Stance != "" {
					b.WriteString(fmt.Sprintf(" - %s", source.Stance))
				}
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
		b.WriteString("---\n\n")
	}

	return b.String()
}
