package violation

import (
	"regexp"
	"strings"

	"github.com/heibot/sanction"
)

var ruleIDPattern = regexp.MustCompile(`^[0-9]{3,4}$`)

// typePriority orders violation types from most to least dangerous.
// Every sanction.ViolationType must appear exactly once.
var typePriority = []sanction.ViolationType{
	sanction.ViolationIllegal,
	sanction.ViolationSelfHarm,
	sanction.ViolationEvasion,
	sanction.ViolationPrivacy,
	sanction.ViolationImpersonation,
	sanction.ViolationNSFW,
	sanction.ViolationToxicity,
	sanction.ViolationAdvertising,
	sanction.ViolationSpam,
	sanction.ViolationOther,
}

// TypePriority returns the priority order used by MapBatch, highest first.
func TypePriority() []sanction.ViolationType {
	out := make([]sanction.ViolationType, len(typePriority))
	copy(out, typePriority)
	return out
}

// ViolationTypeForRule resolves the violation type of a single rule id.
func ViolationTypeForRule(ruleID string) sanction.ViolationType {
	if t, ok := typeOverrides[strings.TrimSpace(ruleID)]; ok {
		return t
	}
	section, ok := ExtractSection(ruleID)
	if !ok {
		return sanction.ViolationOther
	}
	return SectionDefaultType(section)
}

// IsSevereRule reports whether ruleID is in the severe-rule set.
func IsSevereRule(ruleID string) bool {
	return severeRules[strings.TrimSpace(ruleID)]
}

// IsValidRuleID reports whether ruleID is a 3-4 digit identifier.
func IsValidRuleID(ruleID string) bool {
	return ruleIDPattern.MatchString(ruleID)
}

// MapBatch merges a batch of rule ids into one mapped violation.
// Only ids that resolve to a section are kept. The primary section is that
// of the first kept rule; the type is the highest-priority type among the
// kept rules, independent of input order. A batch with no resolvable id
// returns sanction.ErrCouldNotMap.
func MapBatch(ruleIDs []string) (*sanction.MappedViolation, error) {
	var kept []string
	for _, id := range ruleIDs {
		id = strings.TrimSpace(id)
		if !IsValidRuleID(id) {
			continue
		}
		if _, ok := ExtractSection(id); ok {
			kept = append(kept, id)
		}
	}
	if len(kept) == 0 {
		return nil, sanction.ErrCouldNotMap
	}
	sections := ExtractSections(kept)

	present := make(map[sanction.ViolationType]bool)
	severe := false
	for _, id := range kept {
		present[ViolationTypeForRule(id)] = true
		if IsSevereRule(id) {
			severe = true
		}
	}

	return &sanction.MappedViolation{
		RuleIDs:        kept,
		Sections:       sections,
		PrimarySection: sections[0],
		Type:           highestPriority(present),
		IsSevere:       severe,
	}, nil
}

func highestPriority(present map[sanction.ViolationType]bool) sanction.ViolationType {
	for _, t := range typePriority {
		if present[t] {
			return t
		}
	}
	return sanction.ViolationOther
}

// FormatPolicy joins rule ids for storage.
func FormatPolicy(ruleIDs []string) string {
	return strings.Join(ruleIDs, ",")
}

// ParsePolicy splits a stored policy string back into rule ids.
func ParsePolicy(policy string) []string {
	if policy == "" {
		return nil
	}
	parts := strings.Split(policy, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// PolicySections returns the sections referenced by a stored policy string.
func PolicySections(policy string) []sanction.RuleSection {
	return ExtractSections(ParsePolicy(policy))
}
