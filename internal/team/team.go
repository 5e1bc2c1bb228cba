// Package team resolves the effective team identity used for grouping and
// access control.
package team

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// reserved team prefixes whose identity is qualified by the company name.
var prefixes = []string{"agnius", "miles", "uros"}

// Resolve returns the composite identity for teams that start with a reserved
// prefix ("Agnius " + company), and the trimmed team name otherwise.
func Resolve(teamName, companyName string) string {
	name := strings.TrimSpace(teamName)
	p, ok := prefixOf(name)
	if !ok {
		return name
	}
	// Casers are stateful; one per call.
	title := cases.Title(language.English)
	return strings.TrimSpace(title.String(p) + " " + strings.TrimSpace(companyName))
}

// IsSpecial reports whether the team name carries a reserved prefix.
func IsSpecial(teamName string) bool {
	_, ok := prefixOf(strings.TrimSpace(teamName))
	return ok
}

func prefixOf(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p) {
			return p, true
		}
	}
	return "", false
}
