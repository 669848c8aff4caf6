package waterfall

import (
	"regexp"
	"strings"
)

// LinkedIn search results encode the person in the result title
// ("Jane Doe - VP Operations - Acme Corp | LinkedIn") and sometimes only in
// the profile slug ("linkedin.com/in/jane-doe-12ab34"). Both get parsed;
// the title wins because the slug loses capitalization and middle names.

var (
	linkedinSlugRe = regexp.MustCompile(`linkedin\.com/in/([a-zA-Z][a-zA-Z0-9-]*)`)
	slugTrailerRe  = regexp.MustCompile(`-[0-9a-f]*\d[0-9a-f]*$`)
)

// ParseProfileTitle extracts an identity from a LinkedIn search result
// title. It returns nil when the title does not look like a profile.
func ParseProfileTitle(title string) *Identity {
	title = strings.TrimSpace(title)
	if i := strings.Index(title, "| LinkedIn"); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	if title == "" {
		return nil
	}

	parts := strings.Split(title, " - ")
	name := strings.TrimSpace(parts[0])
	first, last, ok := splitName(name)
	if !ok {
		return nil
	}

	id := &Identity{FirstName: first, LastName: last}
	if len(parts) > 1 {
		id.Title = strings.TrimSpace(parts[1])
	}
	return id
}

// ParseProfileURL extracts an identity from a profile URL slug. Trailing
// disambiguation suffixes ("-12ab34f") are dropped.
func ParseProfileURL(url string) *Identity {
	m := linkedinSlugRe.FindStringSubmatch(url)
	if m == nil {
		return nil
	}
	slug := slugTrailerRe.ReplaceAllString(m[1], "")

	words := strings.Split(slug, "-")
	if len(words) < 2 {
		return nil
	}
	first, last, ok := splitName(strings.Join(words, " "))
	if !ok {
		return nil
	}
	return &Identity{
		FirstName:   titleCase(first),
		LastName:    titleCase(last),
		LinkedInURL: "https://www.linkedin.com/in/" + m[1],
	}
}

// splitName divides a display name into first and last halves. Middle
// names and particles fold into the last name.
func splitName(name string) (first, last string, ok bool) {
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return "", "", false
	}
	for _, f := range fields {
		if !looksLikeName(f) {
			return "", "", false
		}
	}
	return fields[0], strings.Join(fields[1:], " "), true
}

func looksLikeName(word string) bool {
	for _, r := range word {
		if r >= '0' && r <= '9' {
			return false
		}
	}
	// Filters out "CEO", "Dr." style tokens and screaming company names.
	return word != strings.ToUpper(word) || len([]rune(word)) < 2
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
