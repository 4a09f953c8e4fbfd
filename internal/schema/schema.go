package schema

import (
	"fmt"
	"slices"
	"strings"
)

// Variant identifies one of the CRM pipelines carried by an export.
type Variant string

const (
	DirectSales       Variant = "direct_sales"
	PartnerManagement Variant = "partner_management"
)

// Stage is one pipeline step. Column is the token that appears inside the
// export header; Name is what every view reports.
type Stage struct {
	Column string `json:"column"`
	Name   string `json:"name"`
}

// Schema declares the ordered stages of a pipeline variant.
type Schema struct {
	Variant  Variant
	Label    string
	Code     string
	Suffix   string
	Stages   []Stage
	Inactive map[string]bool
	Success  string

	order map[string]int
}

var directSales = newSchema(DirectSales, "Direct Sales", "DS", []Stage{
	{"1 - Target", "1 - Target"},
	{"2 - Qualified", "2 - Qualified"},
	{"3 - Proposal", "3 - Proposal"},
	{"4 - Shortlist", "4 - Shortlist"},
	{"5 - Negotiate", "5 - Negotiate"},
	{"6 - Contract Out", "6 - Contract Out"},
	{"7 - Deal Approval", "7 - Deal Approval"},
	{"8 - Closed Won", "8 - Closed Won"},
	{"9 - Implementation", "9 - Implementation"},
	{"10 - Live", "10 - Live"},
	{"11 - Closed Lost", "11 - Closed Lost"},
	{"12 - Churn", "12 - Churn"},
	{"13 - Dead Deals", "13 - Dead Deals"},
	{"14 - Offboarded", "14 - Offboarded"},
}, []string{"11 - Closed Lost", "12 - Churn", "13 - Dead Deals", "14 - Offboarded"}, "10 - Live")

var partnerManagement = newSchema(PartnerManagement, "Partner Management", "PM", []Stage{
	{"0 - Dormant", "0 - Dormant"},
	{"i - Identified or Unknown", "i - Identified or Unknown"},
	{"ii - Qualified/ Proposal", "ii - Qualified/Proposal"},
	{"iii - Negotiation", "iii - Negotiation"},
	{"iv - Closed Won", "iv - Closed Won"},
	{"v - Implementation", "v - Implementation"},
	{"vi - Live", "vi - Live"},
	{"vii - Closed Lost", "vii - Closed Lost"},
}, []string{"vii - Closed Lost"}, "vi - Live")

func newSchema(v Variant, label, code string, stages []Stage, inactive []string, success string) *Schema {
	s := &Schema{
		Variant:  v,
		Label:    label,
		Code:     code,
		Suffix:   "(" + label + ")",
		Stages:   stages,
		Inactive: make(map[string]bool, len(inactive)),
		Success:  success,
		order:    make(map[string]int, len(stages)),
	}
	for _, name := range inactive {
		s.Inactive[name] = true
	}
	for i, st := range stages {
		s.order[st.Name] = i
	}
	return s
}

// All returns every known pipeline schema in display order.
func All() []*Schema {
	return []*Schema{directSales, partnerManagement}
}

// Lookup returns the schema of a variant.
func Lookup(v Variant) (*Schema, error) {
	for _, s := range All() {
		if s.Variant == v {
			return s, nil
		}
	}
	return nil, fmt.Errorf("unknown pipeline variant %q", v)
}

// ParseVariant accepts the variant id, its label or its short code, case-insensitively.
func ParseVariant(s string) (Variant, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, sc := range All() {
		if norm == string(sc.Variant) || norm == strings.ToLower(sc.Label) || norm == strings.ToLower(sc.Code) {
			return sc.Variant, nil
		}
	}
	return "", fmt.Errorf("unknown pipeline variant %q (expected %s or %s)", s, DirectSales, PartnerManagement)
}

// Order returns the position of a stage in the schema, or -1.
func (s *Schema) Order(stage string) int {
	if i, ok := s.order[stage]; ok {
		return i
	}
	return -1
}

// Has reports whether the stage belongs to this schema.
func (s *Schema) Has(stage string) bool {
	_, ok := s.order[stage]
	return ok
}

func (s *Schema) IsInactive(stage string) bool {
	return s.Inactive[stage]
}

// ActiveStages returns the non-inactive stages in schema order.
func (s *Schema) ActiveStages() []Stage {
	out := make([]Stage, 0, len(s.Stages))
	for _, st := range s.Stages {
		if !s.Inactive[st.Name] {
			out = append(out, st)
		}
	}
	return out
}

// StageNames returns stage names in schema order.
func StageNames(stages []Stage) []string {
	names := make([]string, len(stages))
	for i, st := range stages {
		names[i] = st.Name
	}
	return names
}

// SortStages orders stage names by schema position. Unknown names sort last.
func (s *Schema) SortStages(names []string) {
	slices.SortStableFunc(names, func(a, b string) int {
		oa, ob := s.Order(a), s.Order(b)
		if oa < 0 {
			oa = len(s.Stages)
		}
		if ob < 0 {
			ob = len(s.Stages)
		}
		return oa - ob
	})
}
