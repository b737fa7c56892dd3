package escalation

import "github.com/heibot/sanction"

// baseRestrictions lists what each violation type revokes at MEDIUM and above.
// Every sanction.ViolationType must have an entry, even if empty.
var baseRestrictions = map[sanction.ViolationType][]sanction.FeatureRestriction{
	sanction.ViolationToxicity: {
		sanction.RestrictMessageEmbed,
		sanction.RestrictMessageAttachment,
		sanction.RestrictReactionAdd,
	},
	sanction.ViolationSpam: {
		sanction.RestrictRateLimit,
		sanction.RestrictMessageLink,
		sanction.RestrictThreadCreate,
	},
	sanction.ViolationNSFW: {
		sanction.RestrictMessageEmbed,
		sanction.RestrictMessageAttachment,
		sanction.RestrictNicknameChange,
	},
	sanction.ViolationPrivacy: {
		sanction.RestrictMessageAttachment,
		sanction.RestrictMessageEmbed,
	},
	sanction.ViolationImpersonation: {
		sanction.RestrictNicknameChange,
	},
	sanction.ViolationIllegal: {
		sanction.RestrictMessageEmbed,
		sanction.RestrictMessageAttachment,
		sanction.RestrictMessageLink,
		sanction.RestrictThreadCreate,
		sanction.RestrictVoiceStream,
	},
	sanction.ViolationAdvertising: {
		sanction.RestrictMessageLink,
		sanction.RestrictMessageEmbed,
	},
	sanction.ViolationSelfHarm: {
		sanction.RestrictMessageAttachment,
		sanction.RestrictMessageEmbed,
		sanction.RestrictVoiceStream,
	},
	sanction.ViolationEvasion: {
		sanction.RestrictNicknameChange,
		sanction.RestrictThreadCreate,
		sanction.RestrictVoiceSpeak,
	},
	sanction.ViolationOther: {},
}

// GetRestrictions derives the feature restrictions for a decision.
// Unknown types or severities yield an empty list. LOW collapses to a single
// rate limit; HIGH and CRITICAL always include one.
func GetRestrictions(vt sanction.ViolationType, sev sanction.Severity) []sanction.FeatureRestriction {
	if !vt.Valid() || !sev.Valid() {
		return []sanction.FeatureRestriction{}
	}
	base := baseRestrictions[vt]

	if sev == sanction.SeverityLow {
		if len(base) == 0 {
			return []sanction.FeatureRestriction{}
		}
		return []sanction.FeatureRestriction{sanction.RestrictRateLimit}
	}

	out := make([]sanction.FeatureRestriction, len(base), len(base)+1)
	copy(out, base)
	if sev >= sanction.SeverityHigh && !containsRestriction(out, sanction.RestrictRateLimit) {
		out = append(out, sanction.RestrictRateLimit)
	}
	return out
}

func containsRestriction(rs []sanction.FeatureRestriction, r sanction.FeatureRestriction) bool {
	for _, have := range rs {
		if have == r {
			return true
		}
	}
	return false
}
