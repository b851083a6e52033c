package store

import (
	"time"

	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/features"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/transcript"
)

type Call struct {
	CallID       string    `json:"call_id" gorm:"primaryKey"`
	Ticker       string    `json:"ticker" gorm:"index"`
	CallDate     string    `json:"call_date"`
	SourcePath   string    `json:"source_path"`
	Utterances   int       `json:"utterances"`
	QAUtterances int       `json:"qa_utterances"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Utterance struct {
	ID              uint    `gorm:"primaryKey"`
	CallID          string  `gorm:"uniqueIndex:idx_utterance_call_order;not null"`
	Order           int     `gorm:"column:utt_order;uniqueIndex:idx_utterance_call_order"`
	Section         string  `gorm:"index"`
	TurnType        string
	SpeakerRole     string
	Speaker         string
	Text            string
	Neg             float64
	Neu             float64
	Pos             float64
	Polarity        float64
	UncertaintyRate float64
	NumericDensity  float64
	LenTokens       int
}

type QAPair struct {
	ID                uint    `gorm:"primaryKey"`
	CallID            string  `gorm:"uniqueIndex:idx_pair_call_q;not null"`
	QOrder            int     `gorm:"column:q_order;uniqueIndex:idx_pair_call_q"`
	AOrder            int
	NAnswers          int
	QPolarity         float64 `gorm:"column:q_polarity"`
	APolarity         float64 `gorm:"column:a_polarity"`
	QADelta           float64 `gorm:"column:qa_delta"`
	QLen              int
	ALen              int
	LenRatio          float64
	QUnc              float64
	AUnc              float64
	UncDelta          float64
	QNum              float64
	ANum              float64
	NumDelta          float64
	AnswerSpeakerRole string `gorm:"column:answer_speaker_role;index"`
	QText             string
	AText             string
}

func (QAPair) TableName() string { return "qa_pairs" }

func utteranceRow(su features.ScoredUtterance) Utterance {
	return Utterance{
		CallID:          su.CallID,
		Order:           su.Order,
		Section:         string(su.Section),
		TurnType:        string(su.TurnType),
		SpeakerRole:     string(su.SpeakerRole),
		Speaker:         su.Speaker,
		Text:            su.Text,
		Neg:             su.Neg,
		Neu:             su.Neu,
		Pos:             su.Pos,
		Polarity:        su.Polarity,
		UncertaintyRate: su.UncertaintyRate,
		NumericDensity:  su.NumericDensity,
		LenTokens:       su.LenTokens,
	}
}

func (u Utterance) record() features.ScoredUtterance {
	return features.ScoredUtterance{
		Utterance: transcript.Utterance{
			CallID:      u.CallID,
			Section:     transcript.Section(u.Section),
			TurnType:    transcript.TurnType(u.TurnType),
			SpeakerRole: transcript.ParseRole(u.SpeakerRole),
			Speaker:     u.Speaker,
			Text:        u.Text,
			Order:       u.Order,
		},
		Neg:             u.Neg,
		Neu:             u.Neu,
		Pos:             u.Pos,
		Polarity:        u.Polarity,
		UncertaintyRate: u.UncertaintyRate,
		NumericDensity:  u.NumericDensity,
		LenTokens:       u.LenTokens,
	}
}

func pairRow(p features.QAPair) QAPair {
	return QAPair{
		CallID:            p.CallID,
		QOrder:            p.QOrder,
		AOrder:            p.AOrder,
		NAnswers:          p.NAnswers,
		QPolarity:         p.QPolarity,
		APolarity:         p.APolarity,
		QADelta:           p.QADelta,
		QLen:              p.QLen,
		ALen:              p.ALen,
		LenRatio:          p.LenRatio,
		QUnc:              p.QUnc,
		AUnc:              p.AUnc,
		UncDelta:          p.UncDelta,
		QNum:              p.QNum,
		ANum:              p.ANum,
		NumDelta:          p.NumDelta,
		AnswerSpeakerRole: string(p.AnswerSpeakerRole),
		QText:             p.QText,
		AText:             p.AText,
	}
}

func (p QAPair) record() features.QAPair {
	return features.QAPair{
		CallID:            p.CallID,
		QOrder:            p.QOrder,
		AOrder:            p.AOrder,
		NAnswers:          p.NAnswers,
		QPolarity:         p.QPolarity,
		APolarity:         p.APolarity,
		QADelta:           p.QADelta,
		QLen:              p.QLen,
		ALen:              p.ALen,
		LenRatio:          p.LenRatio,
		QUnc:              p.QUnc,
		AUnc:              p.AUnc,
		UncDelta:          p.UncDelta,
		QNum:              p.QNum,
		ANum:              p.ANum,
		NumDelta:          p.NumDelta,
		AnswerSpeakerRole: transcript.ParseRole(p.AnswerSpeakerRole),
		QText:             p.QText,
		AText:             p.AText,
	}
}
