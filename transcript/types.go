package transcript

import "strings"

// Section is the part of the call an utterance occurred in.
type Section string

const (
	SectionPrepared Section = "prepared"
	SectionQA       Section = "qa"
)

// TurnType classifies an utterance inside the Q&A section.
type TurnType string

const (
	TurnQuestion TurnType = "question"
	TurnAnswer   TurnType = "answer"
	TurnRemark   TurnType = "remark"
)

type Role string

const (
	RoleCEO      Role = "CEO"
	RoleCFO      Role = "CFO"
	RoleIR       Role = "IR"
	RoleAnalyst  Role = "Analyst"
	RoleOperator Role = "Operator"
	RoleOther    Role = "Other"
)

var roles = []Role{RoleCEO, RoleCFO, RoleIR, RoleAnalyst, RoleOperator, RoleOther}

// LookupRole matches s against the known role labels, ignoring case and
// surrounding space.
func LookupRole(s string) (Role, bool) {
	for _, r := range roles {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, true
		}
	}
	return "", false
}

// ParseRole maps a stored role label back to a Role. Unknown labels are Other.
func ParseRole(s string) Role {
	if r, ok := LookupRole(s); ok {
		return r
	}
	return RoleOther
}

// Utterance is one continuous speech turn by one speaker.
type Utterance struct {
	CallID      string   `json:"call_id"`
	Section     Section  `json:"section"`
	TurnType    TurnType `json:"turn_type"`
	SpeakerRole Role     `json:"speaker_role"`
	Speaker     string   `json:"speaker"`
	Text        string   `json:"text"`
	Order       int      `json:"order"`
}
