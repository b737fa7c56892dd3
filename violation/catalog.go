// Package violation maps classifier rule identifiers onto policy sections
// and violation types, and merges a batch of rule ids into one decision.
package violation

import (
	"sort"
	"strconv"

	"github.com/heibot/sanction"
)

// Rule describes a single policy rule in the catalog.
type Rule struct {
	ID      string
	Section sanction.RuleSection
	Title   string
	Type    sanction.ViolationType
	Severe  bool
}

// sectionDefaults is the violation type a rule gets when it has no override.
var sectionDefaults = map[sanction.RuleSection]sanction.ViolationType{
	sanction.SectionBasicBehavior: sanction.ViolationToxicity,
	sanction.SectionContent:       sanction.ViolationNSFW,
	sanction.SectionSpam:          sanction.ViolationSpam,
	sanction.SectionPrivacy:       sanction.ViolationPrivacy,
	sanction.SectionImpersonation: sanction.ViolationImpersonation,
	sanction.SectionAdvertising:   sanction.ViolationAdvertising,
	sanction.SectionVoice:         sanction.ViolationToxicity,
	sanction.SectionAccount:       sanction.ViolationEvasion,
	sanction.SectionPlatform:      sanction.ViolationOther,
	sanction.SectionModeration:    sanction.ViolationOther,
}

// typeOverrides maps specific rules to a type other than their section default.
var typeOverrides = map[string]sanction.ViolationType{
	"103": sanction.ViolationSelfHarm,
	"104": sanction.ViolationIllegal,
	"203": sanction.ViolationIllegal,
	"702": sanction.ViolationPrivacy,
	"803": sanction.ViolationToxicity,
}

// severeRules always force HIGH severity and are never dampened.
var severeRules = map[string]bool{
	"103": true, // self-harm encouragement
	"104": true, // malware, scams, illegal content
	"203": true, // sexualization of minors
	"304": true, // self-bots
	"305": true, // raids
	"802": true, // ban evasion
}

var ruleTitles = map[string]string{
	"101":  "Harassment and bullying",
	"102":  "Hate speech and slurs",
	"103":  "Encouraging self-harm",
	"104":  "Malware, scams and illegal content",
	"105":  "Threats of violence",
	"106":  "Trolling and disruptive behavior",
	"201":  "Sexual content outside age-restricted channels",
	"202":  "Gore and shock content",
	"203":  "Sexualization of minors",
	"204":  "Inappropriate profile content",
	"301":  "Message spam and flooding",
	"302":  "Mass mentions",
	"303":  "Chain messages",
	"304":  "Self-bots and automated user accounts",
	"305":  "Raiding",
	"401":  "Sharing personal information",
	"402":  "Posting private conversations",
	"403":  "Unsolicited direct messages",
	"501":  "Impersonating staff",
	"502":  "Impersonating members or bots",
	"601":  "Unsolicited advertising",
	"602":  "Server invite links",
	"603":  "Unapproved promotions and giveaways",
	"701":  "Voice channel disruption",
	"702":  "Recording voice without consent",
	"801":  "Alternate accounts",
	"802":  "Ban or mute evasion",
	"803":  "Offensive username or nickname",
	"901":  "Platform terms of service violation",
	"902":  "Underage account",
	"1001": "Ignoring moderator instructions",
	"1002": "Abusing the report system",
	"1003": "Moderation log tampering",
}

// SectionDefaultType returns the default violation type for a section.
func SectionDefaultType(s sanction.RuleSection) sanction.ViolationType {
	if t, ok := sectionDefaults[s]; ok {
		return t
	}
	return sanction.ViolationOther
}

// LookupRule returns the catalog entry for a rule id.
func LookupRule(ruleID string) (Rule, bool) {
	title, ok := ruleTitles[ruleID]
	if !ok {
		return Rule{}, false
	}
	section, _ := ExtractSection(ruleID)
	return Rule{
		ID:      ruleID,
		Section: section,
		Title:   title,
		Type:    ViolationTypeForRule(ruleID),
		Severe:  IsSevereRule(ruleID),
	}, true
}

// Rules returns every catalogued rule, ordered by numeric id.
func Rules() []Rule {
	ids := make([]string, 0, len(ruleTitles))
	for id := range ruleTitles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(ids[i])
		b, _ := strconv.Atoi(ids[j])
		return a < b
	})

	rules := make([]Rule, 0, len(ids))
	for _, id := range ids {
		r, _ := LookupRule(id)
		rules = append(rules, r)
	}
	return rules
}
