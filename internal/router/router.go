// Package router picks the tool that answers a query.
package router

import "strings"

// Decision names a destination tool.
type Decision string

const (
	WebSearch   Decision = "web_search"
	DefaultChat Decision = "default_chat"
)

// Keywords that send a query to web search. Matched as substrings.
var searchKeywords = []string{
	"web", "search", "find", "look up", "google", "bing", "duckduckgo", "yahoo", "ask",
}

// Route returns WebSearch if query mentions any search keyword, DefaultChat
// otherwise.
func Route(query string) Decision {
	q := strings.ToLower(query)
	for _, kw := range searchKeywords {
		if strings.Contains(q, kw) {
			return WebSearch
		}
	}
	return DefaultChat
}

// ToolName is the display name, e.g. "Web Search".
func (d Decision) ToolName() string {
	words := strings.Split(string(d), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (d Decision) String() string { return string(d) }
