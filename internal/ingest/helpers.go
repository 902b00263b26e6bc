package ingest

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 80

var (
	// Listing sites render line breaks inside link text as backslash
	// hard-breaks, literal "\n", or doubled backslashes.
	segmentDelimiter = regexp.MustCompile(`\\+\n|\\n|\\\\`)
	segmentLead      = regexp.MustCompile(`^[\s\\-]+`)
	segmentTrail     = regexp.MustCompile(`[\s\\]+$`)
)

// normalizeSpace collapses multiple spaces into one and trims the string.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cleanText(s string) string {
	return normalizeSpace(s)
}

// splitSegments breaks a block's inner text into its visual lines, dropping
// escape debris and empty lines.
func splitSegments(inner string) []string {
	var out []string
	for _, raw := range segmentDelimiter.Split(inner, -1) {
		s := segmentLead.ReplaceAllString(raw, "")
		s = segmentTrail.ReplaceAllString(s, "")
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// foldAccents maps "Médical" to "Medical" so IDs survive a site switching
// between precomposed and plain spellings.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// slugify lowercases title and replaces every character outside [a-z0-9]
// with an underscore, bounded to maxSlugLen bytes.
func slugify(title string) string {
	folded := strings.ToLower(foldAccents(title))
	var b strings.Builder
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		if b.Len() >= maxSlugLen {
			break
		}
	}
	return b.String()
}

// externalID is the dedup key for a listing: source prefix plus the slug of
// its title.
func externalID(prefix, title string) string {
	return prefix + "_" + slugify(title)
}

// absolutizeURL resolves a site-relative link against the source origin.
// Absolute URLs pass through untouched.
func absolutizeURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return strings.TrimSuffix(base, "/") + ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return strings.TrimSuffix(base, "/") + ref
	}
	return b.ResolveReference(r).String()
}
