package karyotype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeScenarios(t *testing.T) {
	tests := []struct {
		name    string
		formula string
		rows    []Row
		totalJ  int
		totalI  int
	}{
		{
			name:    "single gain",
			formula: "47,XX,+8[20]",
			rows: []Row{
				{Anomaly: "+8", Category: GainOf("8"), Explanation: ExplStandard, Occurrences: 1, Clones: []string{"clone1"}, ScoreJ: 1, ScoreI: 1},
			},
			totalJ: 1,
			totalI: 1,
		},
		{
			name:    "balanced translocation in first clone only",
			formula: "46,XY,t(9;22)(q34;q11)[10]/46,XY[5]",
			rows: []Row{
				{Anomaly: "t(9;22)(q34;q11)", Category: CategoryBalancedTranslocation, Explanation: ExplStandard, Occurrences: 1, Clones: []string{"clone1"}, ScoreJ: 1, ScoreI: 1},
			},
			totalJ: 1,
			totalI: 1,
		},
		{
			name:    "derivative translocation",
			formula: "46,XY,der(9)t(9;22)(q34;q11)[20]",
			rows: []Row{
				{Anomaly: "der(9)t(9;22)(q34;q11)", Category: CategoryMultichromosomal, Explanation: ExplMultichromosomal, Occurrences: 1, Clones: []string{"clone1"}, ScoreJ: 1, ScoreI: 2},
			},
			totalJ: 1,
			totalI: 2,
		},
		{
			name:    "tetrasomy within one clone",
			formula: "48,XY,+8,+8[10]",
			rows: []Row{
				{Anomaly: "+8", Category: GainOf("8"), Explanation: ExplSingleChromosome, Occurrences: 2, Clones: []string{"clone1", "clone1"}, ScoreJ: 1, ScoreI: 2},
			},
			totalJ: 1,
			totalI: 2,
		},
		{
			name:    "constitutional gain",
			formula: "47,XY,+21c[20]",
			rows: []Row{
				{Anomaly: "+21c", Category: GainOf("21"), Explanation: ExplConstitutional, Occurrences: 1, Clones: []string{"clone1"}, ScoreJ: 1, ScoreI: 0},
			},
			totalJ: 1,
			totalI: 0,
		},
		{
			name:    "single chromosome dicentric",
			formula: "45,XX,dic(9)(p13)[8]",
			rows: []Row{
				{Anomaly: "dic(9)(p13)", Category: CategoryDicentric, Explanation: ExplDicentric, Occurrences: 1, Clones: []string{"clone1"}, ScoreJ: 1, ScoreI: 2},
			},
			totalJ: 1,
			totalI: 2,
		},
		{
			name:    "implicit derivative",
			formula: "46,XY,der(9)add(9)(p13)t(9;22)(q34;q11)/46,XY,der(9)t(9;22)(q34;q11)[cp5]",
			rows: []Row{
				{Anomaly: "der(9)add(9)(p13)t(9;22)(q34;q11)", Category: CategoryMultichromosomal, Explanation: ExplMultichromosomal, Occurrences: 1, Clones: []string{"clone1"}, ScoreJ: 1, ScoreI: 2},
				{Anomaly: "der(9)t(9;22)(q34;q11)", Category: CategoryMultichromosomal, Explanation: "Implicit derivative (der(9)add(9)(p13)t(9;22)(q34;q11)) (0 point)", Occurrences: 1, Clones: []string{"clone2"}, ScoreJ: 1, ScoreI: 0},
			},
			totalJ: 2,
			totalI: 2,
		},
		{
			name:    "no-break space inside a translocation",
			formula: "46,XY,t(9;\u00a022)(q34;\vq11)[10]",
			rows: []Row{
				{Anomaly: "t(9;22)(q34;q11)", Category: CategoryBalancedTranslocation, Explanation: ExplStandard, Occurrences: 1, Clones: []string{"clone1"}, ScoreJ: 1, ScoreI: 1},
			},
			totalJ: 1,
			totalI: 1,
		},
		{
			name:    "no-break space does not split a shared gain",
			formula: "47,XX,+\u00a08/47,XX,+8",
			rows: []Row{
				{Anomaly: "+8", Category: GainOf("8"), Explanation: ExplSingleChromosome, Occurrences: 2, Clones: []string{"clone1", "clone2"}, ScoreJ: 1, ScoreI: 2},
			},
			totalJ: 1,
			totalI: 2,
		},
		{
			// Intended: a der is only made explicit by a partner inside its
			// own token, so the separate add(9) leaves total 3.
			name:    "separate add token does not make a derivative explicit",
			formula: "46,XY,der(9)t(9;22)(q34;q11),add(9)(q34)/46,XY,der(9)t(9;22)(q34;q11)[cp5]",
			rows: []Row{
				{Anomaly: "der(9)t(9;22)(q34;q11)", Category: CategoryMultichromosomal, Explanation: ExplMultichromosomal, Occurrences: 2, Clones: []string{"clone1", "clone2"}, ScoreJ: 1, ScoreI: 2},
				{Anomaly: "add(9)(q34)", Category: CategoryOther, Explanation: ExplStandard, Occurrences: 1, Clones: []string{"clone1"}, ScoreJ: 1, ScoreI: 1},
			},
			totalJ: 2,
			totalI: 3,
		},
		{
			name:    "implicit gain",
			formula: "46,XX,+1,der(1;7)(q10;p10)[12]",
			rows: []Row{
				{Anomaly: "+1", Category: GainOf("1"), Explanation: "Implicit gain/loss (der(1;7)(q10;p10)) (0 point)", Occurrences: 1, Clones: []string{"clone1"}, ScoreJ: 1, ScoreI: 0},
				{Anomaly: "der(1;7)(q10;p10)", Category: CategoryMultichromosomal, Explanation: ExplMultichromosomal, Occurrences: 1, Clones: []string{"clone1"}, ScoreJ: 1, ScoreI: 2},
			},
			totalJ: 2,
			totalI: 2,
		},
		{
			name:    "tetraploid clone",
			formula: "92,XXYY,+8[3]",
			rows: []Row{
				{Anomaly: Tetraploidy, Category: CategoryOther, Explanation: ExplStandard, Occurrences: 1, Clones: []string{"clone1"}, ScoreJ: 1, ScoreI: 1},
				{Anomaly: "+8", Category: GainOf("8"), Explanation: ExplStandard, Occurrences: 1, Clones: []string{"clone1"}, ScoreJ: 1, ScoreI: 1},
			},
			totalJ: 2,
			totalI: 2,
		},
		{
			name:    "triploid clone",
			formula: "69,XXY[4]",
			rows: []Row{
				{Anomaly: Triploidy, Category: CategoryOther, Explanation: ExplStandard, Occurrences: 1, Clones: []string{"clone1"}, ScoreJ: 1, ScoreI: 1},
			},
			totalJ: 1,
			totalI: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, total, err := Analyze(tt.formula)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, tt.rows, result.Rows)
			assert.Equal(t, tt.totalJ, result.TotalJ())
			assert.Equal(t, tt.totalI, result.TotalI())
			assert.Equal(t, tt.totalI, total)
		})
	}
}

func TestAnalyzeNormalFormula(t *testing.T) {
	result, total, err := Analyze("46,XX[20]")
	require.NoError(t, err)

	assert.Empty(t, result.Rows)
	assert.Zero(t, total)
	assert.Equal(t, Row{Anomaly: TotalLabel}, result.Total)
}

func TestAnalyzeUncertaintyMarkerIsCosmetic(t *testing.T) {
	plain, _, err := Analyze("47,XX,dic(9;20)(p13;q11.2),+1,der(1;7)(q10;p10)")
	require.NoError(t, err)
	uncertain, _, err := Analyze("47,XX,?dic(9;20)(p13;q11.2),+1,?der(1;7)(q10;p10)")
	require.NoError(t, err)

	require.Len(t, uncertain.Rows, len(plain.Rows))
	for i := range plain.Rows {
		assert.Equal(t, plain.Rows[i].Category, uncertain.Rows[i].Category)
		assert.Equal(t, plain.Rows[i].ScoreI, uncertain.Rows[i].ScoreI)
	}
	assert.Equal(t, "?dic(9;20)(p13;q11.2)", uncertain.Rows[0].Anomaly)
	assert.Equal(t, "Implicit gain/loss (?der(1;7)(q10;p10)) (0 point)", uncertain.Rows[1].Explanation)
}

func TestAnalyzePloidyRows(t *testing.T) {
	hasRow := func(result *Result, anomaly string) bool {
		for _, row := range result.Rows {
			if row.Anomaly == anomaly {
				return true
			}
		}
		return false
	}

	tetra, _, err := Analyze("92,XXYY,+8")
	require.NoError(t, err)
	assert.True(t, hasRow(tetra, Tetraploidy))

	tri, _, err := Analyze("69,XXY,-7")
	require.NoError(t, err)
	assert.True(t, hasRow(tri, Triploidy))

	diploid, _, err := Analyze("46,XX")
	require.NoError(t, err)
	assert.False(t, hasRow(diploid, Tetraploidy))
	assert.False(t, hasRow(diploid, Triploidy))
}

var propertyCorpus = []string{
	"47,XX,+8[20]",
	"46,XY,t(9;22)(q34;q11)[10]/46,XY[5]",
	"46,XY,der(9)add(9)(p13)t(9;22)(q34;q11)/46,XY,der(9)t(9;22)(q34;q11)[cp5]",
	"92,XXYY,+8,+8,-7,del(5)(q13q33)[3]/46,XX[17]",
	"45,XY,-7,der(1;7)(q10;p10),+1,?dic(9;20)(p13;q11.2)[12]",
	"47~49,XX,+1~3mar,4dmin,hsr(1)(p22),r(7)(p22q36),i(17)(q10)",
	"48,XX,trp(1)(q21q32),ider(17)(q10),idic(17)(p11),ins(5;2)(p14;q22q32),<2n>",
	"",
	"/",
	",,,",
	"[[[",
	"46,XX,t(",
	"?,?,?",
	"+,-,+",
}

func TestAnalyzeProperties(t *testing.T) {
	for _, formula := range propertyCorpus {
		t.Run(formula, func(t *testing.T) {
			first, total, err := Analyze(formula)
			require.NoError(t, err)
			second, _, err := Analyze(formula)
			require.NoError(t, err)

			assert.Equal(t, first, second, "analysis must be idempotent")
			assert.Equal(t, len(first.Rows), first.TotalJ())
			assert.GreaterOrEqual(t, first.TotalI(), 0)
			assert.LessOrEqual(t, first.TotalI(), MaxScorePerAnomaly*len(first.Rows))
			assert.Equal(t, first.TotalI(), total)

			all := first.AllRows()
			assert.Equal(t, TotalLabel, all[len(all)-1].Anomaly)
		})
	}
}

func TestScoreWithoutMembership(t *testing.T) {
	result := Score([]string{"+8"}, nil)

	require.Len(t, result.Rows, 1)
	assert.Empty(t, result.Rows[0].Clones)
	assert.Equal(t, 1, result.TotalI())
}

func TestRowBadge(t *testing.T) {
	assert.Equal(t, BadgeHigh, Row{ScoreI: 2}.Badge())
	assert.Equal(t, BadgeStandard, Row{ScoreI: 1}.Badge())
	assert.Equal(t, BadgeNone, Row{ScoreI: 0}.Badge())
}
