package karyotype

import (
	"regexp"
	"sort"
	"strings"
)

var chromosomeRefPattern = regexp.MustCompile(`(?:der|dic|del|dup|ins|t|i|ider|idic|r)\(([0-9;]+)`)

// Normalize strips the leading uncertainty marker so that "?dic(9)" and
// "dic(9)" count as the same anomaly.
func Normalize(token string) string {
	return strings.TrimLeft(token, "?")
}

// Chromosomes returns the distinct chromosome numbers referenced by a token,
// sorted as strings. Numbers are not normalised: "09" and "9" differ.
func Chromosomes(token string) []string {
	set := chromosomeSet(token)
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func chromosomeSet(token string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, m := range chromosomeRefPattern.FindAllStringSubmatch(token, -1) {
		addChromosomes(set, m[1])
	}
	return set
}

// addChromosomes adds a semicolon separated list such as "9;22" to set.
func addChromosomes(set map[string]struct{}, list string) {
	for _, n := range strings.Split(list, ";") {
		if n != "" {
			set[n] = struct{}{}
		}
	}
}
