package orchestrator

import (
	"math"
	"slices"

	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/features"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/transcript"
)

const allSections = "all"

func (f Filter) apply(utts []transcript.Utterance) []transcript.Utterance {
	out := utts
	if len(f.Sections) > 0 {
		out = make([]transcript.Utterance, 0, len(utts))
		for _, u := range utts {
			if slices.Contains(f.Sections, u.Section) {
				out = append(out, u)
			}
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

type column struct {
	name string
	get  func(features.ScoredUtterance) float64
}

var summaryColumns = []column{
	{"polarity", func(s features.ScoredUtterance) float64 { return s.Polarity }},
	{"neg", func(s features.ScoredUtterance) float64 { return s.Neg }},
	{"neu", func(s features.ScoredUtterance) float64 { return s.Neu }},
	{"pos", func(s features.ScoredUtterance) float64 { return s.Pos }},
}

// Summarize computes descriptive statistics of the sentiment columns over
// all records and then per section, in that order.
func Summarize(recs []features.ScoredUtterance) []SummaryRow {
	if len(recs) == 0 {
		return nil
	}
	type group struct {
		name string
		recs []features.ScoredUtterance
	}
	groups := []group{{allSections, recs}}
	for _, sec := range []transcript.Section{transcript.SectionPrepared, transcript.SectionQA} {
		var g []features.ScoredUtterance
		for _, r := range recs {
			if r.Section == sec {
				g = append(g, r)
			}
		}
		if len(g) > 0 {
			groups = append(groups, group{string(sec), g})
		}
	}

	var rows []SummaryRow
	for _, g := range groups {
		for _, c := range summaryColumns {
			vals := make([]float64, len(g.recs))
			for i, r := range g.recs {
				vals[i] = c.get(r)
			}
			row := describe(vals)
			row.Section, row.Column = g.name, c.name
			rows = append(rows, row)
		}
	}
	return rows
}

// describe uses the sample standard deviation and linear interpolation
// between order statistics for quartiles.
func describe(vals []float64) SummaryRow {
	n := len(vals)
	row := SummaryRow{Count: n}
	if n == 0 {
		return row
	}
	sorted := slices.Clone(vals)
	slices.Sort(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	row.Mean = sum / float64(n)
	if n > 1 {
		var ss float64
		for _, v := range sorted {
			ss += (v - row.Mean) * (v - row.Mean)
		}
		row.Std = math.Sqrt(ss / float64(n-1))
	}
	row.Min, row.Max = sorted[0], sorted[n-1]
	row.Q25 = quantile(sorted, 0.25)
	row.Median = quantile(sorted, 0.5)
	row.Q75 = quantile(sorted, 0.75)
	return row
}

func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func countQA(utts []transcript.Utterance) int {
	n := 0
	for _, u := range utts {
		if u.Section == transcript.SectionQA {
			n++
		}
	}
	return n
}
