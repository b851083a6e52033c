package features

import (
	"cmp"
	"slices"

	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/transcript"
)

// lenEpsilon keeps len_ratio finite.
const lenEpsilon = 1e-6

// QAPair is an analyst question matched with the first answer turn after it.
type QAPair struct {
	CallID            string          `json:"call_id"`
	QOrder            int             `json:"q_order"`
	AOrder            int             `json:"a_order"`
	NAnswers          int             `json:"n_answers"`
	QPolarity         float64         `json:"q_polarity"`
	APolarity         float64         `json:"a_polarity"`
	QADelta           float64         `json:"qa_delta"`
	QLen              int             `json:"q_len"`
	ALen              int             `json:"a_len"`
	LenRatio          float64         `json:"len_ratio"`
	QUnc              float64         `json:"q_unc"`
	AUnc              float64         `json:"a_unc"`
	UncDelta          float64         `json:"unc_delta"`
	QNum              float64         `json:"q_num"`
	ANum              float64         `json:"a_num"`
	NumDelta          float64         `json:"num_delta"`
	AnswerSpeakerRole transcript.Role `json:"answer_speaker_role"`
	QText             string          `json:"q_text"`
	AText             string          `json:"a_text"`
}

type pendingQuestion struct {
	q       ScoredUtterance
	answers []ScoredUtterance
}

// Pair groups Q&A-section records into question/answer pairs. Records may
// come from several calls in any order. A question is closed by the next
// question in the same call or by the end of input; questions that collected
// no answer are dropped, as are answers with no open question. A question
// still open when the call id changes is discarded rather than closed.
func Pair(records []ScoredUtterance) []QAPair {
	rows := slices.Clone(records)
	slices.SortStableFunc(rows, func(a, b ScoredUtterance) int {
		if c := cmp.Compare(a.CallID, b.CallID); c != 0 {
			return c
		}
		return cmp.Compare(a.Order, b.Order)
	})

	var (
		closed      []pendingQuestion
		current     *pendingQuestion
		currentCall string
		seenCall    bool
	)
	for _, r := range rows {
		if r.Section != transcript.SectionQA {
			continue
		}
		if !seenCall || r.CallID != currentCall {
			currentCall, seenCall = r.CallID, true
			current = nil
		}
		switch r.TurnType {
		case transcript.TurnQuestion:
			if current != nil {
				closed = append(closed, *current)
			}
			current = &pendingQuestion{q: r}
		case transcript.TurnAnswer:
			if current != nil {
				current.answers = append(current.answers, r)
			}
		}
	}
	if current != nil {
		closed = append(closed, *current)
	}

	var pairs []QAPair
	for _, p := range closed {
		if len(p.answers) == 0 {
			continue
		}
		pairs = append(pairs, newPair(p.q, p.answers[0], len(p.answers)))
	}
	return pairs
}

func newPair(q, a ScoredUtterance, nAnswers int) QAPair {
	return QAPair{
		CallID:            q.CallID,
		QOrder:            q.Order,
		AOrder:            a.Order,
		NAnswers:          nAnswers,
		QPolarity:         q.Polarity,
		APolarity:         a.Polarity,
		QADelta:           a.Polarity - q.Polarity,
		QLen:              q.LenTokens,
		ALen:              a.LenTokens,
		LenRatio:          (float64(a.LenTokens) + lenEpsilon) / (float64(q.LenTokens) + lenEpsilon),
		QUnc:              q.UncertaintyRate,
		AUnc:              a.UncertaintyRate,
		UncDelta:          a.UncertaintyRate - q.UncertaintyRate,
		QNum:              q.NumericDensity,
		ANum:              a.NumericDensity,
		NumDelta:          a.NumericDensity - q.NumericDensity,
		AnswerSpeakerRole: a.SpeakerRole,
		QText:             q.Text,
		AText:             a.Text,
	}
}
