// Package transcript turns raw earnings-call transcript text into ordered
// speaker utterances.
//
// Segmentation is a line scan over a two-state machine (prepared remarks,
// then Q&A). Speaker headers and the Q&A section header close the pending
// turn; everything else is body text for the current speaker. Malformed
// input never fails: unmatched lines are treated as content and a missing
// Q&A header simply means the call never leaves the prepared section.
package transcript

import (
	"regexp"
	"strings"
)

const unknownSpeaker = "Unknown"

var (
	speakerLine = regexp.MustCompile(`^\s*([A-Z][A-Za-z .,'-]+):\s*(.*)$`)
	qaHeader    = regexp.MustCompile(`(?i)^\s*(?:Q\s*&\s*A|Questions?[\s-]*(?:&|and)[\s-]*Answers?)(?:\s+Session)?\s*:?\s*$`)
)

type state int

const (
	inPrepared state = iota
	inQA
)

func (s state) section() Section {
	if s == inQA {
		return SectionQA
	}
	return SectionPrepared
}

type segmenter struct {
	callID  string
	state   state
	speaker string
	role    Role
	buf     []string
	out     []Utterance
}

// flush emits the buffered lines as one utterance. An empty buffer emits
// nothing and does not consume an order value.
func (s *segmenter) flush() {
	if len(s.buf) == 0 {
		return
	}
	speaker, role := s.speaker, s.role
	if speaker == "" {
		speaker, role = unknownSpeaker, RoleOther
	}
	s.out = append(s.out, Utterance{
		CallID:      s.callID,
		Section:     s.state.section(),
		TurnType:    TurnRemark,
		SpeakerRole: role,
		Speaker:     speaker,
		Text:        strings.TrimSpace(strings.Join(s.buf, " ")),
		Order:       len(s.out),
	})
	s.buf = s.buf[:0]
}

func (s *segmenter) line(line string) {
	if qaHeader.MatchString(line) {
		s.flush()
		s.state = inQA
		return
	}
	if m := speakerLine.FindStringSubmatch(line); m != nil {
		s.flush()
		s.speaker = strings.TrimSpace(m[1])
		s.role = InferRole(s.speaker)
		if rest := strings.TrimSpace(m[2]); rest != "" {
			s.buf = append(s.buf, rest)
		}
		return
	}
	if trimmed := strings.TrimSpace(line); trimmed != "" {
		s.buf = append(s.buf, trimmed)
	}
}

// Segment splits raw transcript text into utterances for callID. Order values
// are assigned 0..N-1 in source order. Q&A turns are typed after the scan:
// analysts ask questions, operators make remarks, and everyone else answers.
func Segment(callID, raw string) []Utterance {
	s := &segmenter{callID: callID, state: inPrepared}
	for _, line := range splitLines(raw) {
		s.line(line)
	}
	s.flush()

	for i := range s.out {
		s.out[i].TurnType = resolveTurn(s.out[i])
	}
	return s.out
}

func resolveTurn(u Utterance) TurnType {
	if u.Section != SectionQA {
		return TurnRemark
	}
	switch u.SpeakerRole {
	case RoleAnalyst:
		return TurnQuestion
	case RoleOperator:
		return TurnRemark
	default:
		return TurnAnswer
	}
}

func splitLines(raw string) []string {
	if raw == "" {
		return nil
	}
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	return strings.Split(raw, "\n")
}
