package component

import "strings"

// Hint is a quick-search suggestion shown before any query is typed.
type Hint struct {
	Term        string `json:"term"`
	Description string `json:"description"`
}

// HintGroup is a titled list of hints.
type HintGroup struct {
	Title string `json:"title"`
	Hints []Hint `json:"hints"`
}

// RefcodeFamilies are the known refcode prefixes.
var RefcodeFamilies = []Hint{
	{Term: "3232", Description: "System/Host IPL failures"},
	{Term: "B700", Description: "Hardware-level errors"},
	{Term: "CE00", Description: "CE test tool codes"},
	{Term: "E000", Description: "Early firmware/POST events"},
}

// SearchHints returns the quick-search suggestions.
func SearchHints() []HintGroup {
	return []HintGroup{
		{Title: "Refcode types", Hints: RefcodeFamilies},
		{Title: "Common SE commands", Hints: []Hint{
			{Term: "zm_dcm_data.py", Description: "Chip data analysis"},
			{Term: "zsegetsysstatus", Description: "System status check"},
			{Term: "cecctl reset", Description: "CEC control reset"},
			{Term: "drawerctl", Description: "Drawer management"},
		}},
		{Title: "Component types", Hints: []Hint{
			{Term: "DCM", Description: "Dual Chip Modules"},
			{Term: "VPD", Description: "Vital Product Data issues"},
			{Term: "SCL", Description: "Scaled Clock Level"},
			{Term: "PSRO", Description: "Power-on Self-Reset"},
		}},
	}
}

// Family returns the refcode family prefix (e.g. "B700") or "" when the
// refcode belongs to no known family.
func Family(refcode string) string {
	rc := strings.ToUpper(strings.TrimSpace(refcode))
	for _, f := range RefcodeFamilies {
		if strings.HasPrefix(rc, f.Term) {
			return f.Term
		}
	}
	return ""
}
