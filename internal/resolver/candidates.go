package resolver

import (
	"regexp"
	"strings"
)

// Honorific prefixes strippable during fallback matching. Stripping is lossy
// ("P Smith" could be an initial), so stripped candidates are tried last.
var honorificPattern = regexp.MustCompile(
	`^(Adv|Chief|Dr|Miss|Mme|Mna|Mnr|Mnu|Moh|Moruti|Moulana|Mr|Mrs|Ms|Njing|Nkk|Nksz|Nom|P|Prince|Prof|Rev|Rre|Umntwana) `)

var parenPattern = regexp.MustCompile(`^((?:\w|\s)+) \(((?:\w|\s)+)\)`)

// splitParen splits "Name (Some Qualifier Here)" into the name and the
// parenthetical content, but only when the parens hold at least three
// whitespace-separated words; a short parenthetical is usually a party
// abbreviation, already handled by indexed variants. Returns empty strings
// when the pattern does not apply.
func splitParen(name string) (sansParen, paren string) {
	m := parenPattern.FindStringSubmatch(name)
	if m == nil {
		return "", ""
	}
	if len(strings.Fields(m[2])) < 3 {
		return "", ""
	}
	return m[1], m[2]
}

// stripHonorific removes a leading honorific. The second return reports
// whether anything was stripped; callers skip the candidate otherwise.
func stripHonorific(name string) (string, bool) {
	stripped := honorificPattern.ReplaceAllString(name, "")
	return stripped, stripped != name
}

// candidates returns the ordered rewrites of the input to try against the
// index, most specific first. The parenthetical qualifier leads: it carries
// less text than the full input but more disambiguating power. Evaluation is
// lazy on the caller's side; building the strings themselves is cheap.
func candidates(name, partyHint string) []string {
	sansParen, paren := splitParen(name)

	out := make([]string, 0, 6)
	if paren != "" {
		out = append(out, paren)
	}
	if partyHint != "" {
		out = append(out, name+" "+partyHint)
	}
	out = append(out, name)
	if sansParen != "" {
		out = append(out, sansParen)
	}
	if stripped, ok := stripHonorific(name); ok {
		out = append(out, stripped)
	}
	if sansParen != "" {
		if stripped, ok := stripHonorific(sansParen); ok {
			out = append(out, stripped)
		}
	}
	return out
}
