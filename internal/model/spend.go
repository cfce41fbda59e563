package model

import "strings"

// Group is the top-level split of a unit's spend.
type Group string

const (
	GroupPeople   Group = "people"
	GroupPrograms Group = "programs"
)

// Valid reports whether g is one of the two known groups.
func (g Group) Valid() bool {
	return g == GroupPeople || g == GroupPrograms
}

// ParseGroup resolves a group label case-insensitively.
func ParseGroup(s string) (Group, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "people":
		return GroupPeople, true
	case "programs", "program":
		return GroupPrograms, true
	}
	return "", false
}

// SpendEntry is one named cost category of a unit. Value is the derived
// whole-number percentage of the unit's total spend.
type SpendEntry struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Value  int     `json:"value"`
}

// Known spend types of each group.
var (
	PeopleSpendTypes = []string{
		"Salaries",
		"Fringe Benefits",
		"UIF",
		"CODIA",
		"AVBOB",
		"Skills Development Levy",
		"Travel Claims",
		"Expense Claims",
		"Gifts (People)",
	}
	ProgramSpendTypes = []string{
		"Agencies and Consulting Services",
		"Content Creation",
		"Events and Sponsorships",
		"Marketing Tech and Software",
		"Paid Media",
		"Production of Physical Branding",
		"General",
	}
)

// Display categories used to label month records.
const (
	CategoryCompensation  = "Compensation"
	CategorySubscriptions = "Subscriptions"
	CategoryEvents        = "Events"
	CategoryOther         = "Other Expenses"
)

// DisplayCategories lists the display categories in presentation order.
var DisplayCategories = []string{
	CategoryCompensation,
	CategorySubscriptions,
	CategoryEvents,
	CategoryOther,
}

var spendTypeCategories = map[string]string{
	"Salaries":                CategoryCompensation,
	"Fringe Benefits":         CategoryCompensation,
	"UIF":                     CategoryCompensation,
	"CODIA":                   CategoryCompensation,
	"AVBOB":                   CategoryCompensation,
	"Skills Development Levy": CategoryCompensation,

	"Marketing Tech and Software": CategorySubscriptions,

	"Events and Sponsorships": CategoryEvents,

	"Travel Claims":                    CategoryOther,
	"Expense Claims":                   CategoryOther,
	"Gifts (People)":                   CategoryOther,
	"Agencies and Consulting Services": CategoryOther,
	"Content Creation":                 CategoryOther,
	"Paid Media":                       CategoryOther,
	"Production of Physical Branding":  CategoryOther,
	"General":                          CategoryOther,
}

// CategoryFor maps a spend type to its display category. Unknown spend
// types fall under Other Expenses.
func CategoryFor(spendType string) string {
	if c, ok := spendTypeCategories[spendType]; ok {
		return c
	}
	return CategoryOther
}
