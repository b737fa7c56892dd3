// Package sanction provides an automated moderation escalation engine:
// it turns classifier categories and a user's recent violation history
// into a punishment decision (violation type, severity, feature
// restrictions, manual review routing) and runs it live or as a dry run.
package sanction

import (
	"fmt"
	"strings"
)

// ViolationType is the categorical nature of an offense.
type ViolationType string

const (
	ViolationToxicity      ViolationType = "TOXICITY"
	ViolationSpam          ViolationType = "SPAM"
	ViolationNSFW          ViolationType = "NSFW"
	ViolationPrivacy       ViolationType = "PRIVACY"
	ViolationImpersonation ViolationType = "IMPERSONATION"
	ViolationIllegal       ViolationType = "ILLEGAL"
	ViolationAdvertising   ViolationType = "ADVERTISING"
	ViolationSelfHarm      ViolationType = "SELF_HARM"
	ViolationEvasion       ViolationType = "EVASION"
	ViolationOther         ViolationType = "OTHER"
)

var allViolationTypes = []ViolationType{
	ViolationToxicity,
	ViolationSpam,
	ViolationNSFW,
	ViolationPrivacy,
	ViolationImpersonation,
	ViolationIllegal,
	ViolationAdvertising,
	ViolationSelfHarm,
	ViolationEvasion,
	ViolationOther,
}

// AllViolationTypes returns every known violation type.
func AllViolationTypes() []ViolationType {
	out := make([]ViolationType, len(allViolationTypes))
	copy(out, allViolationTypes)
	return out
}

// Valid reports whether t is a known violation type.
func (t ViolationType) Valid() bool {
	for _, known := range allViolationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Severity is the ordered weight of a punishment.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns the string representation of Severity.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether s is one of the four defined levels.
func (s Severity) Valid() bool {
	return s >= SeverityLow && s <= SeverityCritical
}

// ParseSeverity parses a severity name, case-insensitively.
func ParseSeverity(v string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "LOW":
		return SeverityLow, nil
	case "MEDIUM":
		return SeverityMedium, nil
	case "HIGH":
		return SeverityHigh, nil
	case "CRITICAL":
		return SeverityCritical, nil
	}
	return 0, fmt.Errorf("sanction: unknown severity %q", v)
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("sanction: invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// RuleSection is a 100-wide band of related policy rules.
type RuleSection int

const (
	SectionBasicBehavior RuleSection = 100
	SectionContent       RuleSection = 200
	SectionSpam          RuleSection = 300
	SectionPrivacy       RuleSection = 400
	SectionImpersonation RuleSection = 500
	SectionAdvertising   RuleSection = 600
	SectionVoice         RuleSection = 700
	SectionAccount       RuleSection = 800
	SectionPlatform      RuleSection = 900
	SectionModeration    RuleSection = 1000
)

var allSections = []RuleSection{
	SectionBasicBehavior,
	SectionContent,
	SectionSpam,
	SectionPrivacy,
	SectionImpersonation,
	SectionAdvertising,
	SectionVoice,
	SectionAccount,
	SectionPlatform,
	SectionModeration,
}

// AllSections returns every rule section in ascending order.
func AllSections() []RuleSection {
	out := make([]RuleSection, len(allSections))
	copy(out, allSections)
	return out
}

// Valid reports whether s is a defined section band.
func (s RuleSection) Valid() bool {
	for _, known := range allSections {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the section name.
func (s RuleSection) String() string {
	switch s {
	case SectionBasicBehavior:
		return "BASIC_BEHAVIOR"
	case SectionContent:
		return "CONTENT"
	case SectionSpam:
		return "SPAM"
	case SectionPrivacy:
		return "PRIVACY"
	case SectionImpersonation:
		return "IMPERSONATION"
	case SectionAdvertising:
		return "ADVERTISING"
	case SectionVoice:
		return "VOICE"
	case SectionAccount:
		return "ACCOUNT"
	case SectionPlatform:
		return "PLATFORM"
	case SectionModeration:
		return "MODERATION"
	default:
		return "UNKNOWN"
	}
}

// FeatureRestriction is a platform capability that can be revoked.
type FeatureRestriction string

const (
	RestrictMessageEmbed      FeatureRestriction = "MESSAGE_EMBED"
	RestrictMessageAttachment FeatureRestriction = "MESSAGE_ATTACHMENT"
	RestrictMessageLink       FeatureRestriction = "MESSAGE_LINK"
	RestrictRateLimit         FeatureRestriction = "RATE_LIMIT"
	RestrictNicknameChange    FeatureRestriction = "NICKNAME_CHANGE"
	RestrictReactionAdd       FeatureRestriction = "REACTION_ADD"
	RestrictThreadCreate      FeatureRestriction = "THREAD_CREATE"
	RestrictVoiceSpeak        FeatureRestriction = "VOICE_SPEAK"
	RestrictVoiceStream       FeatureRestriction = "VOICE_STREAM"
)

var allRestrictions = []FeatureRestriction{
	RestrictMessageEmbed,
	RestrictMessageAttachment,
	RestrictMessageLink,
	RestrictRateLimit,
	RestrictNicknameChange,
	RestrictReactionAdd,
	RestrictThreadCreate,
	RestrictVoiceSpeak,
	RestrictVoiceStream,
}

// Valid reports whether r is a known restriction.
func (r FeatureRestriction) Valid() bool {
	for _, known := range allRestrictions {
		if r == known {
			return true
		}
	}
	return false
}

// Standing classifies a user's current restriction level.
type Standing string

const (
	StandingAllGood     Standing = "ALL_GOOD"
	StandingLimited     Standing = "LIMITED"
	StandingVeryLimited Standing = "VERY_LIMITED"
	StandingAtRisk      Standing = "AT_RISK"
	StandingSuspended   Standing = "SUSPENDED"
)

// AutomatedIssuer is the issuer id recorded for engine-created violations.
const AutomatedIssuer = "0"

// AIDetectedMarker tags the reason of violations created from classifier output.
const AIDetectedMarker = "AI-detected"

// Default configuration values
const (
	DefaultLookbackDays                = 1
	DefaultMaxAutoOffensesBeforeReview = 3
	DefaultFirstOffenseSeverityCap     = SeverityLow
	RecentViolationDays                = 30
)
