package karyotype

import (
	"regexp"
	"strings"
)

var (
	balancedTranslocationPattern = regexp.MustCompile(`^t\(\d+(?:;\d+)+\)\(.+\)$`)
	balancedInsertionPattern     = regexp.MustCompile(`^ins\(\d+(?:;\d+)+\)\(.+\)$`)
)

// All predicates expect a normalized token.

// IsSingleChromosomeImbalance reports a single-chromosome imbalance worth two
// points: a repeated gain (count is the normalized occurrence count in the
// formula), a triplication or an isoderivative chromosome.
func IsSingleChromosomeImbalance(token string, count int) bool {
	if strings.HasPrefix(token, "+") && count > 1 {
		return true
	}
	return strings.HasPrefix(token, "trp") || strings.HasPrefix(token, "ider")
}

// IsBalancedTranslocation matches t(A;B[;...])(bands) with no derivative,
// gain or loss marker.
func IsBalancedTranslocation(token string) bool {
	return balancedTranslocationPattern.MatchString(token) && !hasImbalanceMarker(token)
}

// IsUnbalancedTranslocation matches a translocation carried by a derivative or
// dicentric chromosome, or any translocation that is not balanced.
func IsUnbalancedTranslocation(token string) bool {
	if !strings.Contains(token, "t(") {
		return false
	}
	if strings.Contains(token, "der") || strings.Contains(token, "dic") {
		return true
	}
	return !IsBalancedTranslocation(token)
}

// IsBalancedInsertion matches ins(A;B[;...])(bands) with no derivative, gain
// or loss marker.
func IsBalancedInsertion(token string) bool {
	return balancedInsertionPattern.MatchString(token) && !hasImbalanceMarker(token)
}

// IsComplexMultichromosomal reports an unbalanced anomaly involving at least
// two chromosomes.
func IsComplexMultichromosomal(token string) bool {
	if len(chromosomeSet(token)) <= 1 {
		return false
	}
	switch {
	case strings.HasPrefix(token, "der"),
		strings.HasPrefix(token, "dic"),
		strings.HasPrefix(token, "r("):
		return true
	case strings.Contains(token, "ins(") && !IsBalancedInsertion(token):
		return true
	case strings.Contains(token, "t(") && !IsBalancedTranslocation(token):
		return true
	}
	return false
}

func hasImbalanceMarker(token string) bool {
	return strings.Contains(token, "der") ||
		strings.Contains(token, "+") ||
		strings.Contains(token, "-")
}
