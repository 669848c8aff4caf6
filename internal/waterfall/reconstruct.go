package waterfall

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ExpandPattern turns a domain address pattern ("{first}.{last}",
// "{f}{last}", ...) and a contact's name into a concrete address. It
// returns "" when the pattern contains placeholders it cannot fill or the
// expansion would produce a malformed local part.
func ExpandPattern(pattern, first, last, domain string) string {
	first = normalizeNamePart(first)
	last = normalizeNamePart(last)
	if pattern == "" || domain == "" || first == "" || last == "" {
		return ""
	}

	local := strings.ToLower(strings.TrimSpace(pattern))
	if at := strings.IndexByte(local, '@'); at >= 0 {
		local = local[:at]
	}

	r := strings.NewReplacer(
		"{first}", first,
		"{last}", last,
		"{f}", first[:1],
		"{l}", last[:1],
	)
	local = r.Replace(local)

	// An unfilled placeholder means the pattern used a token we don't
	// understand; refuse rather than guess.
	if strings.ContainsAny(local, "{}") {
		return ""
	}

	// Collapse artifacts of empty-ish names ("j..doe", ".doe", "doe.").
	for strings.Contains(local, "..") {
		local = strings.ReplaceAll(local, "..", ".")
	}
	local = strings.Trim(local, ".-_")
	if local == "" {
		return ""
	}

	return local + "@" + domain
}

// normalizeNamePart lowercases a name half, folds accented letters to
// their ASCII bases, and strips anything that cannot appear in an
// address local part.
func normalizeNamePart(s string) string {
	s = norm.NFD.String(strings.ToLower(strings.TrimSpace(s)))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from decomposition
		case r == 'æ':
			b.WriteString("ae")
		case r == 'œ':
			b.WriteString("oe")
		case r == 'ß':
			b.WriteString("ss")
		case r == 'ø':
			b.WriteByte('o')
		}
	}
	return b.String()
}
