package models

import (
	id "namedex/pkg/domain"
)

// Person is a canonical person record from the upstream registry.
// All fields besides ID and Name are optional.
type Person struct {
	ID              id.PersonID
	Name            string
	GivenName       string
	FamilyName      string
	HonorificPrefix string
}

// Organization is a canonical organization record from the upstream registry.
type Organization struct {
	ID             id.OrganizationID
	Name           string
	OtherNames     []string
	Classification string
}

// ClassificationParty is the organization classification that drives
// parenthetical party-abbreviation variants. Matching is case-insensitive.
const ClassificationParty = "party"

// Membership links a person to an organization over a half-open interval.
// StartDate and EndDate are possibly-partial ISO strings: a "-00" month or
// day placeholder is allowed (e.g. "2009-05-00"), and either side may be
// empty for an open bound.
type Membership struct {
	Person       id.PersonID
	Organization *Organization
	Role         string
	Label        string
	StartDate    string
	EndDate      string
}
