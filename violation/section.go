package violation

import (
	"strconv"
	"strings"

	"github.com/heibot/sanction"
)

const (
	minRuleNumber = 100
	maxRuleNumber = 1999
)

// ExtractSection returns the section a rule id belongs to.
// Ids that do not parse as a base-10 integer in [100, 1999] have no section;
// everything from 1000 up collapses into the moderation section.
func ExtractSection(ruleID string) (sanction.RuleSection, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(ruleID))
	if err != nil || n < minRuleNumber || n > maxRuleNumber {
		return 0, false
	}
	if n >= int(sanction.SectionModeration) {
		return sanction.SectionModeration, true
	}
	section := sanction.RuleSection(n / 100 * 100)
	if !section.Valid() {
		return 0, false
	}
	return section, true
}

// ExtractSections returns the distinct sections of ruleIDs in first-seen order.
func ExtractSections(ruleIDs []string) []sanction.RuleSection {
	seen := make(map[sanction.RuleSection]bool)
	var sections []sanction.RuleSection
	for _, id := range ruleIDs {
		s, ok := ExtractSection(id)
		if !ok || seen[s] {
			continue
		}
		seen[s] = true
		sections = append(sections, s)
	}
	return sections
}
