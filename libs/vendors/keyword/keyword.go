// Package keyword produces canned call summaries from keyword matches. It is
// deterministic and needs no external service, so it serves as the fallback
// when no hosted text-generation backend is configured.
package keyword

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/jacky-htg/warm-transfer/libs/interfaces"
)

const (
	BriefSummary = "Brief call summary: Customer inquiry handled successfully."

	BillingSummary = "Customer contacted support regarding a billing issue. The payment method was updated and the billing cycle was confirmed. The customer expressed satisfaction with the resolution and no further action is required."

	TechnicalSummary = "Customer reported a technical issue with the service. Initial troubleshooting steps were performed and the issue was identified. The customer was provided with a solution and the problem was resolved successfully."

	AccountSummary = "Customer needed assistance with account access. Login credentials were verified and password reset procedures were completed. The customer was able to successfully access their account."

	CancellationSummary = "Customer requested to cancel service or process a refund. Account details were reviewed and the cancellation/refund process was initiated according to company policy. Customer was informed of next steps."

	DetailedSummary = "Customer contacted support with a detailed inquiry. The agent provided comprehensive assistance and addressed all customer concerns. The issue was resolved and the customer was satisfied with the service provided."

	GenericSummary = "Customer called with a support request. The agent assisted with the inquiry and provided the necessary information. The customer's needs were met and the call was completed successfully."
)

const (
	minTranscriptLen = 10
	detailedWords    = 50
)

// rules are checked in order; the first match wins.
var rules = []struct {
	keywords []string
	summary  string
}{
	{[]string{"billing", "payment", "card", "charge"}, BillingSummary},
	{[]string{"technical", "error", "bug", "not working", "issue"}, TechnicalSummary},
	{[]string{"account", "login", "password", "access"}, AccountSummary},
	{[]string{"cancel", "refund", "return"}, CancellationSummary},
}

// Summarize picks a canned summary for transcript.
func Summarize(transcript string) string {
	if utf8.RuneCountInString(strings.TrimSpace(transcript)) < minTranscriptLen {
		return BriefSummary
	}

	lower := strings.ToLower(transcript)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.summary
			}
		}
	}

	if len(strings.Fields(transcript)) > detailedWords {
		return DetailedSummary
	}
	return GenericSummary
}

type keywordLLM struct{}

// New returns an LLM that ignores options and answers every prompt with
// Summarize(prompt).
func New() interfaces.LLM { return keywordLLM{} }

func (keywordLLM) Generate(ctx context.Context, prompt string, _ ...interfaces.LLMOption) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return Summarize(prompt), nil
}
