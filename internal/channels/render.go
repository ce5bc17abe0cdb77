package channels

import "strings"

// Markup describes how a platform writes emoji and bold text.
type Markup struct {
	Emoji func(name string) string
	Bold  func(s string) string
}

var (
	// MarkdownMarkup renders unicode emoji and **bold**.
	MarkdownMarkup = Markup{
		Emoji: EmojiGlyph,
		Bold:  func(s string) string { return "**" + s + "**" },
	}

	// PlainMarkup renders unicode emoji and leaves titles undecorated.
	PlainMarkup = Markup{
		Emoji: EmojiGlyph,
		Bold:  func(s string) string { return s },
	}
)

// SectionText renders the lead-in and body of one section.
func (mk Markup) SectionText(s Section) string {
	var head []string
	if s.Emoji != "" {
		if e := mk.Emoji(s.Emoji); e != "" {
			head = append(head, e)
		}
	}
	if s.Title != "" {
		head = append(head, mk.Bold(s.Title))
	}

	lead := strings.Join(head, " ")
	switch {
	case lead == "":
		return s.Text
	case s.Text == "":
		return lead
	default:
		return lead + "\n" + s.Text
	}
}

// Render flattens msg into one text body, for platforms without blocks.
// Sections are separated by blank lines; context sections are italicized
// when bold is decorated.
func (mk Markup) Render(msg *OutboundMessage) string {
	if len(msg.Sections) == 0 {
		return msg.Text
	}

	parts := make([]string, 0, len(msg.Sections))
	for _, s := range msg.Sections {
		text := mk.SectionText(s)
		if text == "" {
			continue
		}
		if s.Kind == SectionContext && mk.Bold("x") != "x" {
			text = "_" + text + "_"
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}

// Truncate cuts s to at most limit bytes on a rune boundary, marking the cut.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	const marker = "…"
	cut := limit - len(marker)
	if cut < 0 {
		cut = 0
	}
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + marker
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
