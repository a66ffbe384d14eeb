package conferencing

import "strings"

// The description block is versioned by its exact layout. Render and parse
// live together here and nowhere else.
const (
	descriptionRule   = "━━━━━━━━━━━━━━━━━━━━━━"
	descriptionHeader = descriptionRule + "\n🎥 Join "
	linkPrefix        = "Meeting Link: "
	passwordPrefix    = "Password: "
)

// RenderDescription appends the join block for m to original.
func RenderDescription(original string, m *Meeting) string {
	var b strings.Builder
	if original != "" {
		b.WriteString(original)
		b.WriteString("\n\n")
	}
	b.WriteString(descriptionHeader)
	b.WriteString(platformName(m.PlatformName))
	b.WriteString(" Meeting\n")
	b.WriteString(descriptionRule)
	b.WriteString("\n\n")
	b.WriteString(linkPrefix)
	b.WriteString(m.JoinURL)
	b.WriteString("\n")
	if m.Password != "" {
		b.WriteString(passwordPrefix)
		b.WriteString(m.Password)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(descriptionRule)
	return b.String()
}

// blockBounds returns the byte range of the join block in desc.
func blockBounds(desc string) (start, end int, ok bool) {
	start = strings.Index(desc, descriptionHeader)
	if start < 0 {
		return 0, 0, false
	}
	body := start + len(descriptionHeader)
	closing := strings.Index(desc[body:], "\n\n"+descriptionRule)
	if closing < 0 {
		return 0, 0, false
	}
	return start, body + closing + 2 + len(descriptionRule), true
}

// StripDescription removes the join block, restoring the text that was
// passed to RenderDescription.
func StripDescription(desc string) string {
	start, end, ok := blockBounds(desc)
	if !ok {
		return desc
	}
	return strings.TrimSuffix(desc[:start], "\n\n") + desc[end:]
}

// ParseDescription recovers the link and password from a join block.
func ParseDescription(desc string) (link, password string, ok bool) {
	start, end, found := blockBounds(desc)
	if !found {
		return "", "", false
	}
	for _, line := range strings.Split(desc[start:end], "\n") {
		switch {
		case strings.HasPrefix(line, linkPrefix):
			link = strings.TrimPrefix(line, linkPrefix)
		case strings.HasPrefix(line, passwordPrefix):
			password = strings.TrimPrefix(line, passwordPrefix)
		}
	}
	return link, password, link != ""
}

// ReplaceOriginal keeps the join block of desc and swaps the text before
// it for original. Descriptions without a block are replaced entirely.
func ReplaceOriginal(desc, original string) string {
	start, end, ok := blockBounds(desc)
	if !ok {
		return original
	}
	block := desc[start:end]
	if original == "" {
		return block + desc[end:]
	}
	return original + "\n\n" + block + desc[end:]
}
