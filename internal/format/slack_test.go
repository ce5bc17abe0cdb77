package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlack(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"link", "[A](http://x)", "<http://x|A>"},
		{"link trimmed", "see [ Go docs ]( https://go.dev/doc )", "see <https://go.dev/doc|Go docs>"},
		{"link with underscores and stars", "[a*b](https://x.io/a_b)", "<https://x.io/a_b|a*b>"},
		{"link with parentheses", "1. [Go (lang)](https://en.wikipedia.org/wiki/Go_(programming_language))", "1. <https://en.wikipedia.org/wiki/Go_(programming_language)|Go (lang)>"},
		{"link then text in parentheses", "[A](http://x) (see above)", "<http://x|A> (see above)"},
		{"heading", "### Title", "*Title*"},
		{"heading collapse", "### Title\n\n\n\nBody", "*Title*\n\nBody"},
		{"only h3", "## Sub\n#### Deep", "## Sub\n#### Deep"},
		{"bold", "this is **important** and **also this**", "this is *important* and *also this*"},
		{"bold does not span lines", "**open\nclose**", "**open\nclose**"},
		{"numbered", "  1.   First\n2. Second", "1. First\n2. Second"},
		{"bullet dash", "- apples", "a. apples"},
		{"bullet star", "Intro\n* pears", "Intro\n    a. pears"},
		{"bullet shallow indent", "Intro\n  - kiwis", "Intro\n    a. kiwis"},
		{"nested bullet", "Intro\n    - seeds\n\t\t\t\t* pits", "Intro\n        i. seeds\n        i. pits"},
		{"mention", "ping @alice please", "ping @alice please"},
		{"blank lines", "a\n\n\n\n\nb\n\nc", "a\n\nb\n\nc"},
		{"trim", "\n\n  hello  \n\n", "hello"},
		{"plain", "just text", "just text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slack(tt.in))
		})
	}
}

func TestSlack_Document(t *testing.T) {
	in := "### Summary\n\n" +
		"Here is **what** you asked for:\n\n\n" +
		"1. Install [Go](https://go.dev/dl)\n" +
		"- run `go version`\n" +
		"    - check the output\n\n\n\n" +
		"Thanks @bob"

	want := "*Summary*\n\n" +
		"Here is *what* you asked for:\n\n" +
		"1. Install <https://go.dev/dl|Go>\n" +
		"    a. run `go version`\n" +
		"        i. check the output\n\n" +
		"Thanks @bob"

	assert.Equal(t, want, Slack(in))
}

func TestSlack_Idempotent(t *testing.T) {
	inputs := []string{
		"### Title\n\n\n\nBody",
		"[A](http://x) and **b**",
		"1. one\n- two\n    - three",
		"plain @user text",
	}

	for _, in := range inputs {
		once := Slack(in)
		assert.Equal(t, once, Slack(once), "input %q", in)
	}
}
