package karyotype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		token string
		want  Category
	}{
		{"der(9)t(9;22)(q34;q11)", CategoryMultichromosomal},
		{"t(9;22)", CategoryMultichromosomal},
		{"dic(9;20)(p13;q11.2)", CategoryMultichromosomal},
		{"t(9;22)(q34;q11)", CategoryBalancedTranslocation},
		{"ins(5;2)(p14;q22q32)", CategoryBalancedInsertion},
		{PloidyMarker, CategoryPloidy},
		{"+1~3mar", CategoryPleiade},
		{"+mar", CategoryMarker},
		{"4dmin", CategoryDoubleMinutes},
		{"hsr(1)(p22)", CategoryHSR},
		{"r(7)(p22q36)", CategoryRing},
		{"der(1)add(1)(p36)", CategoryDerivative},
		{"ins(2)(p13q21q31)", CategoryInsertion},
		{"+8", GainOf("8")},
		{"+21c", GainOf("21")},
		{"-7", LossOf("7")},
		{"dup(1)(q21q32)", CategoryDuplication},
		{"del(5)(q13q33)", CategoryDeletion},
		{"trp(1)(q21q32)", CategoryTriplication},
		{"dic(9)(p13)", CategoryDicentric},
		{"idic(17)(p11)", CategoryIsodicentric},
		{"ider(17)(q10)", CategoryIsoderivative},
		{"i(17)(q10)", CategoryIsochromosome},
		{"inv(16)(p13q22)", CategoryOther},
		{Tetraploidy, CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.token))
		})
	}
}

func TestGainAndLossLabels(t *testing.T) {
	assert.Equal(t, Category("Gain of chromosome 8"), GainOf("8"))
	assert.Equal(t, Category("Loss of chromosome 7"), LossOf("7"))
}

func TestClassificationRuleOrder(t *testing.T) {
	var names []string
	for _, r := range classificationRules {
		names = append(names, r.name)
	}

	assert.Equal(t, []string{
		"multichromosomal",
		"balanced-translocation",
		"unbalanced-translocation",
		"balanced-insertion",
		"ploidy",
		"pleiade",
		"marker",
		"double-minutes",
		"hsr",
		"ring",
		"derivative",
		"insertion",
		"translocation",
		"gain",
		"loss",
		"duplication",
		"deletion",
		"triplication",
		"dicentric",
		"isodicentric",
		"isoderivative",
		"isochromosome",
	}, names)
}

func TestClassifyReportsFiringRule(t *testing.T) {
	category, rule := classify("der(9)t(9;22)(q34;q11)")
	assert.Equal(t, CategoryMultichromosomal, category)
	assert.Equal(t, "multichromosomal", rule)

	category, rule = classify("inv(16)(p13q22)")
	assert.Equal(t, CategoryOther, category)
	assert.Empty(t, rule)
}
