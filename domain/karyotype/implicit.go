package karyotype

import (
	"regexp"
	"sort"
	"strings"
)

// Reasons attached to implicit anomalies.
const (
	ReasonImplicitDerivative = "Implicit derivative"
	ReasonImplicitGainLoss   = "Implicit gain/loss"
)

var (
	derivativeTranslocationPattern = regexp.MustCompile(`^(?:der|dic)\((\d+)\).*t\((\d+);(\d+)\)`)
	derivativeHeadPattern          = regexp.MustCompile(`^(?:der|dic)\(([0-9;]+)\)`)
	translocationGroupPattern      = regexp.MustCompile(`t\(([0-9;]+)\)`)
	explicitChangePattern          = regexp.MustCompile(`add|del|dup`)
)

// Implicit explains why an anomaly is not scored on its own.
type Implicit struct {
	Reason    string `json:"reason"`
	Reference string `json:"reference"` // display form of the explaining anomaly
}

// tokenIndex holds the distinct normalized tokens of one formula in
// first-seen order with the first raw spelling of each.
type tokenIndex struct {
	normalized []string
	display    map[string]string
	counts     map[string]int
}

func indexTokens(anomalies []string) *tokenIndex {
	idx := &tokenIndex{
		display: make(map[string]string),
		counts:  make(map[string]int),
	}
	for _, raw := range anomalies {
		norm := Normalize(raw)
		if _, seen := idx.display[norm]; !seen {
			idx.display[norm] = raw
			idx.normalized = append(idx.normalized, norm)
		}
		idx.counts[norm]++
	}
	return idx
}

// DetectImplicit returns, keyed by normalized token, every anomaly of the
// list that is fully explained by another one.
func DetectImplicit(anomalies []string) map[string]Implicit {
	idx := indexTokens(anomalies)
	implicit := make(map[string]Implicit)
	markImplicitDerivatives(idx, implicit)
	markImplicitGainsLosses(idx, implicit)
	return implicit
}

// markImplicitDerivatives groups der/dic tokens carrying t(A;B) by the pair
// {A,B}. When a member also shows add, del or dup it is the explicit form
// and every other member of the group is implicit.
func markImplicitDerivatives(idx *tokenIndex, implicit map[string]Implicit) {
	groups := make(map[string][]string)
	for _, norm := range idx.normalized {
		m := derivativeTranslocationPattern.FindStringSubmatch(norm)
		if m == nil {
			continue
		}
		pair := []string{m[2], m[3]}
		sort.Strings(pair)
		key := pair[0] + ";" + pair[1]
		groups[key] = append(groups[key], norm)
	}

	for _, members := range groups {
		explicit := ""
		for _, member := range members {
			if explicitChangePattern.MatchString(member) {
				explicit = member
				break
			}
		}
		if explicit == "" {
			continue
		}
		for _, member := range members {
			if explicitChangePattern.MatchString(member) {
				continue
			}
			mark(implicit, member, Implicit{Reason: ReasonImplicitDerivative, Reference: idx.display[explicit]})
		}
	}
}

// markImplicitGainsLosses suppresses +N/-N when N is already carried by a
// derivative involving more than one chromosome.
func markImplicitGainsLosses(idx *tokenIndex, implicit map[string]Implicit) {
	carriers := make(map[string]string)
	for _, norm := range idx.normalized {
		head := derivativeHeadPattern.FindStringSubmatch(norm)
		if head == nil {
			continue
		}
		involved := make(map[string]struct{})
		addChromosomes(involved, head[1])
		for _, t := range translocationGroupPattern.FindAllStringSubmatch(norm, -1) {
			addChromosomes(involved, t[1])
		}
		if len(involved) < 2 {
			continue
		}
		for c := range involved {
			if _, taken := carriers[c]; !taken {
				carriers[c] = norm
			}
		}
	}

	for _, norm := range idx.normalized {
		if !strings.HasPrefix(norm, "+") && !strings.HasPrefix(norm, "-") {
			continue
		}
		carrier, ok := carriers[digitsOf(norm)]
		if !ok {
			continue
		}
		mark(implicit, norm, Implicit{Reason: ReasonImplicitGainLoss, Reference: idx.display[carrier]})
	}
}

// mark records the first explanation only.
func mark(implicit map[string]Implicit, norm string, info Implicit) {
	if _, done := implicit[norm]; done {
		return
	}
	implicit[norm] = info
}
