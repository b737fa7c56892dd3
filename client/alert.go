package client

import (
	"fmt"
	"strings"

	"github.com/heibot/sanction"
)

// FormatAlert renders the moderator-facing summary of an evaluation.
// Lines appear in a fixed order; optional lines are omitted when empty.
// Dry-run results use "would be" phrasing, live results "was"/"were".
func FormatAlert(res *sanction.PunishmentResult, in EvaluateInput) string {
	if res == nil {
		return ""
	}

	verb, plural := "was", "were"
	if res.DryRun {
		verb, plural = "would be", "would be"
	}

	var b strings.Builder
	switch {
	case res.Skipped:
		b.WriteString("**Evaluation skipped**\n")
	case res.Error != "" && !res.Punished:
		b.WriteString("**Evaluation failed**\n")
	case res.DryRun:
		b.WriteString("**[DRY RUN] Automated moderation**\n")
	default:
		b.WriteString("**Automated moderation**\n")
	}

	fmt.Fprintf(&b, "User: <@%s> (`%s`)\n", in.UserID, in.UserID)
	if in.ChannelID != "" {
		fmt.Fprintf(&b, "Channel: <#%s>\n", in.ChannelID)
	}

	if m := res.Mapped; m != nil {
		fmt.Fprintf(&b, "Rules: `%s` (%s)\n", strings.Join(m.RuleIDs, ","), m.PrimarySection)
		fmt.Fprintf(&b, "Type: %s\n", m.Type)
	}

	if res.Punished {
		fmt.Fprintf(&b, "Severity: %s\n", res.Severity)
		fmt.Fprintf(&b, "Prior offenses in section: %d\n", res.OffenseCount)
		if len(res.Restrictions) > 0 {
			names := make([]string, len(res.Restrictions))
			for i, r := range res.Restrictions {
				names[i] = string(r)
			}
			fmt.Fprintf(&b, "Restrictions %s applied: `%s`\n", plural, strings.Join(names, ", "))
		} else {
			b.WriteString("Restrictions: none\n")
		}
		if res.Violation != nil {
			fmt.Fprintf(&b, "Violation %s recorded: `%s`\n", verb, res.Violation.ID)
		} else {
			fmt.Fprintf(&b, "Violation %s recorded\n", verb)
		}
		if res.MessageDeleted {
			fmt.Fprintf(&b, "Message %s deleted\n", verb)
		}
		if res.FlaggedForReview {
			b.WriteString("⚠️ Flagged for manual review\n")
		}
	}

	if reason := strings.TrimSpace(in.Moderation.Reason); reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", reason)
	}
	if res.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", res.Error)
	}

	return strings.TrimRight(b.String(), "\n")
}
