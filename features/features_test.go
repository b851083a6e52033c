package features

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/sentiment"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/transcript"
)

// fixedScorer returns a distribution derived from the text length so each
// utterance gets a distinct but predictable score.
func fixedScorer() sentiment.Scorer {
	return sentiment.ScorerFunc(func(ctx context.Context, text string) (sentiment.Distribution, float64, error) {
		if sentiment.Blank(text) {
			return sentiment.Distribution{}, 0, nil
		}
		pos := math.Mod(float64(len(text)), 10) / 20
		d := sentiment.Distribution{Negative: 0.1, Positive: pos}
		d.Neutral = 1 - d.Negative - d.Positive
		return d, d.Polarity(), nil
	})
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestTokenize(t *testing.T) {
	got := Tokenize("Revenue was $1,200.5 million, up 5% ; We EXPECT more")
	want := []string{"revenue", "was", "1", "200", "5", "million", "up", "5", "we", "expect", "more"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("Tokenize() = %v, want %v", got, want)
	}
}

func TestTokenizeUnicodeWords(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Société Générale café", []string{"société", "générale", "café"}},
		{"Müller-Lüdenscheid expects 3½", []string{"müller", "lüdenscheid", "expects", "3½"}},
		{"snake_case stays_whole", []string{"snake_case", "stays_whole"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Tokenize(tt.text)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}

	toks := Tokenize("Die Prognose ist unsicher, risk bleibt")
	if got := UncertaintyRate(toks); !approx(got, 1.0/6) {
		t.Fatalf("UncertaintyRate = %v, want 1/6", got)
	}
}

func TestLexicalRates(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantUnc  float64
		wantNum  float64
		wantToks int
	}{
		{"empty", "", 0, 0, 1},
		{"hedged", "We may see risk around guidance", 4.0 / 6, 0, 6},
		{"numbers", "Margins improved 5%.", 0, 1.0 / 3, 3},
		{"money", "Revenue of $1,200.50 and $3", 0, 2.0 / 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := Tokenize(tt.text)
			if got := UncertaintyRate(toks); !approx(got, tt.wantUnc) {
				t.Errorf("UncertaintyRate = %v, want %v", got, tt.wantUnc)
			}
			if got := NumericDensity(tt.text, toks); !approx(got, tt.wantNum) {
				t.Errorf("NumericDensity = %v, want %v", got, tt.wantNum)
			}
			if got := tokenCount(toks); got != tt.wantToks {
				t.Errorf("tokenCount = %d, want %d", got, tt.wantToks)
			}
		})
	}
}

func TestScorePreservesOrderAndInvariants(t *testing.T) {
	utts := transcript.Segment("ACME_2020-Jan-30", strings.Join([]string{
		"Operator: Welcome to the call.",
		"Tim Cook - CEO: We expect approximately 10% growth.",
		"Q&A",
		"Jane Doe - Analyst: Could you talk about risk?",
		"Tim Cook - CEO: Risks are manageable.",
	}, "\n"))

	// Later utterances return sooner so completion order differs from input order.
	slow := sentiment.ScorerFunc(func(ctx context.Context, text string) (sentiment.Distribution, float64, error) {
		time.Sleep(time.Duration(100-len(text)) * time.Millisecond / 10)
		return fixedScorer().ScoreText(ctx, text)
	})

	var seen atomic.Int32
	got, err := Score(context.Background(), utts, slow, ScoreOptions{
		Workers:  4,
		OnScored: func(ScoredUtterance) { seen.Add(1) },
	})
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if len(got) != len(utts) || int(seen.Load()) != len(utts) {
		t.Fatalf("scored %d (callbacks %d), want %d", len(got), seen.Load(), len(utts))
	}
	for i, su := range got {
		if su.Utterance != utts[i] {
			t.Fatalf("record %d = %+v, want utterance %+v", i, su.Utterance, utts[i])
		}
		if !approx(su.Polarity, su.Pos-su.Neg) {
			t.Errorf("record %d polarity %v != pos-neg %v", i, su.Polarity, su.Pos-su.Neg)
		}
		if math.Abs(su.Neg+su.Neu+su.Pos-1) > 1e-6 {
			t.Errorf("record %d distribution sums to %v", i, su.Neg+su.Neu+su.Pos)
		}
		if su.LenTokens < 1 || su.UncertaintyRate < 0 || su.NumericDensity < 0 {
			t.Errorf("record %d has invalid lexical features: %+v", i, su)
		}
	}
	if got[1].UncertaintyRate == 0 || got[1].NumericDensity == 0 {
		t.Errorf("guidance sentence should carry uncertainty and numerics: %+v", got[1])
	}
}

func TestScoreEmptyTextIsZero(t *testing.T) {
	got, err := ScoreOne(context.Background(), transcript.Utterance{CallID: "X", Text: "   "}, sentiment.NewLexicon())
	if err != nil {
		t.Fatalf("ScoreOne error: %v", err)
	}
	if got.Neg != 0 || got.Neu != 0 || got.Pos != 0 || got.Polarity != 0 || got.LenTokens != 1 {
		t.Fatalf("blank utterance = %+v, want zero scores and len 1", got)
	}
}

func TestScorePropagatesScorerError(t *testing.T) {
	boom := errors.New("provider unavailable")
	failing := sentiment.ScorerFunc(func(ctx context.Context, text string) (sentiment.Distribution, float64, error) {
		if strings.Contains(text, "fail") {
			return sentiment.Distribution{}, 0, boom
		}
		return fixedScorer().ScoreText(ctx, text)
	})
	utts := []transcript.Utterance{
		{CallID: "X", Order: 0, Text: "fine"},
		{CallID: "X", Order: 1, Text: "please fail"},
		{CallID: "X", Order: 2, Text: "fine again"},
	}
	for _, workers := range []int{0, 1, 3} {
		_, err := Score(context.Background(), utts, failing, ScoreOptions{Workers: workers})
		if !errors.Is(err, boom) {
			t.Fatalf("workers=%d: error = %v, want %v", workers, err, boom)
		}
		if !strings.Contains(err.Error(), "X#1") {
			t.Fatalf("workers=%d: error %q does not name the utterance", workers, err)
		}
	}
}

func scored(callID string, order int, section transcript.Section, turn transcript.TurnType, role transcript.Role, text string, polarity float64) ScoredUtterance {
	toks := Tokenize(text)
	return ScoredUtterance{
		Utterance: transcript.Utterance{
			CallID: callID, Section: section, TurnType: turn, SpeakerRole: role,
			Speaker: string(role), Text: text, Order: order,
		},
		Polarity:        polarity,
		UncertaintyRate: UncertaintyRate(toks),
		NumericDensity:  NumericDensity(text, toks),
		LenTokens:       tokenCount(toks),
	}
}

func q(callID string, order int, text string) ScoredUtterance {
	return scored(callID, order, transcript.SectionQA, transcript.TurnQuestion, transcript.RoleAnalyst, text, -0.2)
}

func a(callID string, order int, text string) ScoredUtterance {
	return scored(callID, order, transcript.SectionQA, transcript.TurnAnswer, transcript.RoleCEO, text, 0.4)
}

func op(callID string, order int) ScoredUtterance {
	return scored(callID, order, transcript.SectionQA, transcript.TurnRemark, transcript.RoleOperator, "Next question.", 0)
}

func TestPairExampleCall(t *testing.T) {
	utts := transcript.Segment("ACME", "Operator: Welcome.\nQ&A\nJane Analyst: What about margins?\nJohn Smith, CEO: Margins improved 5%.")
	recs, err := Score(context.Background(), utts, fixedScorer(), ScoreOptions{})
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}

	pairs := Pair(recs)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1: %+v", len(pairs), pairs)
	}
	p := pairs[0]
	if p.CallID != "ACME" || p.QOrder != 1 || p.AOrder != 2 || p.NAnswers != 1 {
		t.Fatalf("unexpected pair identity: %+v", p)
	}
	if !strings.Contains(p.AText, "Margins improved 5%.") || p.AnswerSpeakerRole != transcript.RoleCEO {
		t.Fatalf("unexpected answer: %+v", p)
	}
	if !approx(p.ANum, 1.0/3) || p.QNum != 0 || !approx(p.NumDelta, 1.0/3) {
		t.Fatalf("numeric fields = q %v a %v delta %v", p.QNum, p.ANum, p.NumDelta)
	}
	if !approx(p.QADelta, recs[2].Polarity-recs[1].Polarity) {
		t.Fatalf("qa_delta = %v", p.QADelta)
	}
	if p.QLen != 3 || p.ALen != 3 || !approx(p.LenRatio, 1) {
		t.Fatalf("len_ratio = %v", p.LenRatio)
	}
}

func TestPairUsesFirstAnswer(t *testing.T) {
	recs := []ScoredUtterance{
		q("A", 0, "How is demand?"),
		a("A", 1, "Demand is strong."),
		op("A", 2),
		a("A", 3, "And I would add pricing held up well."),
	}
	pairs := Pair(recs)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if pairs[0].AOrder != 1 || pairs[0].AText != "Demand is strong." || pairs[0].NAnswers != 2 {
		t.Fatalf("pair used wrong answer: %+v", pairs[0])
	}
	if pairs[0].ALen != 3 {
		t.Fatalf("a_len = %d, want 3", pairs[0].ALen)
	}
}

func TestPairDropsUnansweredAndOrphans(t *testing.T) {
	recs := []ScoredUtterance{
		scored("A", 0, transcript.SectionPrepared, transcript.TurnRemark, transcript.RoleCEO, "Prepared remarks.", 0),
		a("A", 1, "Orphan answer."),
		q("A", 2, "Unanswered?"),
		q("A", 3, "Answered?"),
		a("A", 4, "Yes."),
		q("A", 5, "Trailing question?"),
	}
	pairs := Pair(recs)
	if len(pairs) != 1 || pairs[0].QOrder != 3 {
		t.Fatalf("pairs = %+v, want only q_order 3", pairs)
	}
}

func TestPairDiscardsOpenQuestionAcrossCalls(t *testing.T) {
	recs := []ScoredUtterance{
		q("B", 0, "B question?"),
		a("B", 1, "B answer."),
		q("A", 0, "A first?"),
		a("A", 1, "A first answer."),
		q("A", 2, "A last?"),
		a("A", 3, "A last answer."),
	}
	pairs := Pair(recs)
	got := make([]string, 0, len(pairs))
	for _, p := range pairs {
		got = append(got, p.QText)
	}
	want := []string{"A first?", "B question?"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("paired questions = %v, want %v", got, want)
	}
}

func TestPairSortsWithoutMutatingInput(t *testing.T) {
	recs := []ScoredUtterance{
		a("A", 1, "Answer."),
		q("A", 0, "Question?"),
	}
	pairs := Pair(recs)
	if len(pairs) != 1 || pairs[0].QOrder != 0 || pairs[0].AOrder != 1 {
		t.Fatalf("pairs = %+v", pairs)
	}
	if recs[0].Order != 1 || recs[1].Order != 0 {
		t.Fatal("Pair reordered its input")
	}
}

func TestPairEmpty(t *testing.T) {
	if got := Pair(nil); len(got) != 0 {
		t.Fatalf("Pair(nil) = %+v", got)
	}
}
