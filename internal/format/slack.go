// Package format converts model Markdown into Slack mrkdwn.
package format

import (
	"regexp"
	"strings"
)

// Every pattern except blankRuns matches within a single line. Link URLs may
// hold one level of balanced parentheses.
var (
	linkRe     = regexp.MustCompile(`\[([^\]\n]+)\]\(((?:[^()\n]|\([^()\n]*\))+)\)`)
	headingRe  = regexp.MustCompile(`(?m)^###[ \t]+(.*?)[ \t]*$`)
	boldRe     = regexp.MustCompile(`\*\*(.+?)\*\*`)
	numberedRe = regexp.MustCompile(`(?m)^[ \t]*(\d+)\.[ \t]+(.*)$`)
	bulletRe   = regexp.MustCompile(`(?m)^[ \t]{0,3}[-*][ \t]+(.*)$`)
	subBullet  = regexp.MustCompile(`(?m)^[ \t]{4,}[-*][ \t]+(.*)$`)
	blankRuns  = regexp.MustCompile(`\n\n+`)
)

// Slack rewrites text for display in Slack. The rules run in order, each
// over the output of the previous one:
//
//	[T](U)      -> <U|T>
//	### H       -> *H*
//	**T**       -> *T*
//	  3.  item  -> 3. item
//	- item      -> "    a. item"
//	    - item  -> "        i. item"
//
// @mentions are left as they are. Runs of blank lines collapse to one, and
// the result is trimmed.
func Slack(text string) string {
	text = linkRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := linkRe.FindStringSubmatch(m)
		return "<" + strings.TrimSpace(sub[2]) + "|" + strings.TrimSpace(sub[1]) + ">"
	})
	text = headingRe.ReplaceAllString(text, "*${1}*")
	text = boldRe.ReplaceAllString(text, "*${1}*")
	text = numberedRe.ReplaceAllString(text, "${1}. ${2}")
	text = bulletRe.ReplaceAllString(text, "    a. ${1}")
	text = subBullet.ReplaceAllString(text, "        i. ${1}")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
