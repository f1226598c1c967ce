// Package classify decides whether a message violates a chat's blacklist
// and, if so, which violation category applies.
//
// Evaluation is ordered with first-match-wins semantics: blacklist entries
// are checked in list order and the first matching entry determines the
// reported category, so behavior is deterministic when several entries
// match. Matching is a naive lowercase substring test with no word-boundary
// checks; a pattern that is a substring of an innocent word also matches.
package classify

import (
	"regexp"
	"strings"

	"github.com/sentinel/modbot/internal/rules"
)

// Category names the kind of policy violation found in a message.
type Category string

const (
	// CategoryWord is a match against a banned word pattern.
	CategoryWord Category = "forbidden word"

	// CategoryLink is a match against a banned link pattern or the
	// generic link detector.
	CategoryLink Category = "forbidden link"
)

// Violation is the classifier's verdict for a message that broke policy.
type Violation struct {
	Category Category
	IsLink   bool
}

// linkPattern is the generic link detector: http(s) URLs, t.me references,
// and bare .com/.ru/.net tokens. It is a coarse heuristic, not a URL
// parser; bare-TLD tokens match regardless of context and that behavior is
// intentional.
var linkPattern = regexp.MustCompile(`https?://\S+|t\.me/\S+|\.com|\.ru|\.net`)

// IsLinkLike reports whether text trips the generic link detector.
func IsLinkLike(text string) bool {
	return linkPattern.MatchString(text)
}

// Evaluate checks text against the chat's blacklist in list order and
// returns the first violation found, if any.
//
// Link entries match on the literal pattern or on the generic link
// detector. If no entry matches but the text is link-like and the chat has
// at least one link entry (link blocking is active), a forbidden-link
// violation is reported as a fallback.
func Evaluate(text string, patterns []rules.Pattern) (Violation, bool) {
	text = strings.ToLower(text)

	linkBlockingActive := false
	for _, p := range patterns {
		switch p.Kind {
		case rules.KindLink:
			linkBlockingActive = true
			if strings.Contains(text, p.Text) || IsLinkLike(text) {
				return Violation{Category: CategoryLink, IsLink: true}, true
			}
		default:
			if strings.Contains(text, p.Text) {
				return Violation{Category: CategoryWord}, true
			}
		}
	}

	if linkBlockingActive && IsLinkLike(text) {
		return Violation{Category: CategoryLink, IsLink: true}, true
	}

	return Violation{}, false
}
