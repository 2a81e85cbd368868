package model

// Code classifies whether a flag tag's presence agrees with the recipe it is on
type Code string

const (
	CodeOK        Code = "OK"         // Tag presence and recipe state agree
	CodeConflict  Code = "CONFLICT"   // Tag is present but the problem is resolved; remove it
	CodeMissing   Code = "MISSING"    // Tag is absent but the problem is proven; add it
	CodeUnknown   Code = "UNKNOWN"    // Tag is absent and the problem is plausible; double-check
	CodeRuleError Code = "RULE_ERROR" // The rule itself failed on this recipe
)

// Codes lists the verdict codes in severity order
func Codes() []Code {
	return []Code{CodeOK, CodeConflict, CodeMissing, CodeUnknown, CodeRuleError}
}

// Verdict is the outcome of validating one flag tag against one recipe
type Verdict struct {
	TagName string `json:"tagName"`
	TagSlug string `json:"tagSlug,omitempty"`
	Code    Code   `json:"code"`
	Reason  string `json:"reason,omitempty"`
}

// IsIssue reports whether the verdict needs attention
func (v Verdict) IsIssue() bool {
	return v.Code != CodeOK
}
