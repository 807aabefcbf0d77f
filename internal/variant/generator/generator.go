// Package generator derives the full set of name variants for a person: the
// write path of the variant index. Whatever this package emits, the resolver
// must be able to find again, so the two are maintained as one contract.
package generator

import (
	"regexp"
	"sort"
	"strings"
	"time"

	regmodels "namedex/internal/registry/models"
	"namedex/internal/variant/models"
)

var (
	partyAbbrevPattern   = regexp.MustCompile(`^\s*(.*?)\s*\((.*)\)$`)
	candidateRolePattern = regexp.MustCompile(`^\d+.* Candidate$`)
)

// Initials returns every initials rendering for a person, deduplicated and
// sorted. Two candidate pools feed it: the given-name tokens, and all
// full-name tokens except the last (presumed family-name) token. Each pool
// contributes the space-joined initials, the concatenated initials, the
// first initial alone, and, for pools of two or more tokens, the second
// initial alone. Records sometimes identify a person by second initial only,
// so that form matters in practice.
func Initials(givenName, fullName string) []string {
	set := make(map[string]struct{})

	pools := [][]string{
		strings.Fields(givenName),
	}
	if tokens := strings.Fields(fullName); len(tokens) > 1 {
		pools = append(pools, tokens[:len(tokens)-1])
	}

	for _, names := range pools {
		if len(names) == 0 {
			continue
		}
		initials := make([]string, len(names))
		for i, n := range names {
			initials[i] = firstRune(n)
		}
		set[strings.Join(initials, " ")] = struct{}{}
		set[strings.Join(initials, "")] = struct{}{}
		set[initials[0]] = struct{}{}
		if len(initials) >= 2 {
			set[initials[1]] = struct{}{}
		}
	}

	return sortedKeys(set)
}

// FamilyName resolves a person's family name by priority: the explicit
// family-name field, then the full name with the given-name prefix stripped,
// then the last whitespace-delimited token of the full name.
func FamilyName(p regmodels.Person) string {
	if p.FamilyName != "" {
		return p.FamilyName
	}
	if p.GivenName != "" && strings.HasPrefix(p.Name, p.GivenName) {
		return strings.TrimSpace(strings.TrimPrefix(p.Name, p.GivenName))
	}
	tokens := strings.Fields(p.Name)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[len(tokens)-1]
}

// PartyNameVariants splits a party name carrying a parenthesized standard
// abbreviation into its forms, e.g.
//
//	"Economic Freedom Fighters (EFF)" -> ["Economic Freedom Fighters", "EFF"]
//	"Conservative Party"              -> ["Conservative Party"]
func PartyNameVariants(fullName string) []string {
	if m := partyAbbrevPattern.FindStringSubmatch(fullName); m != nil {
		return []string{m[1], m[2]}
	}
	return []string{fullName}
}

// MembershipWindow derives the validity interval from a membership's date
// strings. A "-00" month or day placeholder is normalized to "-01" before
// parsing; an empty or unparsable side yields a nil (open) bound. An
// inverted pair (end before start) is registry noise and degrades to open
// bounds the same way, so every emitted window satisfies from <= to.
func MembershipWindow(m regmodels.Membership) (from, to *time.Time) {
	from, to = parseBound(m.StartDate), parseBound(m.EndDate)
	if from != nil && to != nil && from.After(*to) {
		return nil, nil
	}
	return from, to
}

func parseBound(value string) *time.Time {
	if value == "" {
		return nil
	}
	value = strings.ReplaceAll(value, "-00", "-01")
	t, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// BaseNames returns the person's name-only variants: each honorific in
// {actual prefix, none} combined with the full display name and with every
// initials+family-name rendering. Sorted, exact-string deduplicated.
func BaseNames(p regmodels.Person) []string {
	if p.Name == "" {
		return nil
	}

	honorifics := map[string]struct{}{p.HonorificPrefix: {}, "": {}}
	initials := Initials(p.GivenName, p.Name)
	familyName := FamilyName(p)

	set := make(map[string]struct{})
	for honorific := range honorifics {
		set[joinNonEmpty(honorific, p.Name)] = struct{}{}
		for _, ini := range initials {
			set[joinNonEmpty(honorific, ini, familyName)] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// Generate produces every NameVariant row for one person. A person with an
// empty display name yields nothing. Base names carry the default wide
// window; organization-affiliated variants carry the membership's window.
func Generate(p regmodels.Person, memberships []regmodels.Membership) []models.NameVariant {
	baseNames := BaseNames(p)
	if len(baseNames) == 0 {
		return nil
	}

	var out []models.NameVariant
	seen := make(map[string]struct{})
	emit := func(text string, from, to *time.Time) {
		v := models.NameVariant{
			Text:      text,
			Person:    p.ID,
			ValidFrom: models.DefaultValidFrom,
			ValidTo:   models.DefaultValidTo,
		}
		if from != nil {
			v.ValidFrom = *from
		}
		if to != nil {
			v.ValidTo = *to
		}
		if _, dup := seen[v.Key()]; dup {
			return
		}
		seen[v.Key()] = struct{}{}
		out = append(out, v)
	}

	for _, name := range baseNames {
		emit(name, nil, nil)
	}

	for _, m := range memberships {
		org := m.Organization
		if org == nil {
			continue
		}
		from, to := MembershipWindow(m)
		classification := strings.ToLower(org.Classification)

		if classification == regmodels.ClassificationParty {
			orgNames := append([]string{org.Name}, org.OtherNames...)
			for _, base := range baseNames {
				for _, orgName := range orgNames {
					for _, party := range PartyNameVariants(orgName) {
						emit(base+" ("+party+")", from, to)
					}
				}
			}
		}

		plainPartyMember := classification == regmodels.ClassificationParty && m.Role == "Member"
		candidateList := candidateRolePattern.MatchString(m.Role)
		if plainPartyMember || candidateList {
			continue
		}
		for _, label := range []string{m.Role, m.Label} {
			if label == "" {
				continue
			}
			emit(label+" "+org.Name, from, to)
		}
	}

	return out
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
