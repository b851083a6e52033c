package transcript

import "strings"

// roleKeywords is checked in order; the first role with a matching keyword wins.
var roleKeywords = []struct {
	role     Role
	keywords []string
}{
	{RoleOperator, []string{"operator"}},
	{RoleAnalyst, []string{"analyst", "research"}},
	{RoleCEO, []string{"chief executive", "ceo"}},
	{RoleCFO, []string{"chief financial", "cfo"}},
	{RoleIR, []string{"investor relations", "ir"}},
}

// InferRole guesses a speaker's role from substrings of the speaker label.
// It is a heuristic: any label containing "ir" (e.g. "Shirley") is IR.
func InferRole(name string) Role {
	n := strings.ToLower(name)
	for _, rk := range roleKeywords {
		for _, kw := range rk.keywords {
			if strings.Contains(n, kw) {
				return rk.role
			}
		}
	}
	return RoleOther
}
