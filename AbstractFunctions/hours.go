package AbstractFunctions

import (
	"sort"
	"strings"
)

// pinnedWorkTypes always show in the hours table, in this order.
var pinnedWorkTypes = []string{"drafting", "checking", "database", "project manager"}

type WorkTypeRef struct {
	ID   uint
	Name string
}

// Amount is a number of hours against one work type.
type Amount struct {
	WorkTypeID uint
	Hours      float64
}

type HoursRow struct {
	WorkTypeID uint    `json:"work_type_id"`
	WorkType   string  `json:"work_type"`
	Used       float64 `json:"used"`
	Budgeted   float64 `json:"budgeted"`
	Left       float64 `json:"left"`
	OverBudget bool    `json:"over_budget"`
}

func pinnedRank(name string) int {
	lower := strings.ToLower(strings.TrimSpace(name))
	for i, pinned := range pinnedWorkTypes {
		if lower == pinned {
			return i
		}
	}
	return len(pinnedWorkTypes)
}

// SummarizeHours totals budgeted and used hours per work type for one work
// request. A work type is listed when it has a budget row, has logged
// hours, or is one of the pinned types.
func SummarizeHours(types []WorkTypeRef, budgets, used []Amount) []HoursRow {
	budgeted := make(map[uint]float64)
	hasBudget := make(map[uint]bool)
	for _, b := range budgets {
		budgeted[b.WorkTypeID] += b.Hours
		hasBudget[b.WorkTypeID] = true
	}
	spent := make(map[uint]float64)
	hasUsed := make(map[uint]bool)
	for _, u := range used {
		spent[u.WorkTypeID] += u.Hours
		hasUsed[u.WorkTypeID] = true
	}

	rows := make([]HoursRow, 0, len(types))
	for _, wt := range types {
		if !hasBudget[wt.ID] && !hasUsed[wt.ID] && pinnedRank(wt.Name) == len(pinnedWorkTypes) {
			continue
		}
		left := budgeted[wt.ID] - spent[wt.ID]
		rows = append(rows, HoursRow{
			WorkTypeID: wt.ID,
			WorkType:   wt.Name,
			Used:       spent[wt.ID],
			Budgeted:   budgeted[wt.ID],
			Left:       left,
			OverBudget: left < 0,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := pinnedRank(rows[i].WorkType), pinnedRank(rows[j].WorkType)
		if ri != rj {
			return ri < rj
		}
		return strings.ToLower(rows[i].WorkType) < strings.ToLower(rows[j].WorkType)
	})
	return rows
}

// HoursTotals sums a summary.
func HoursTotals(rows []HoursRow) (used, budgeted, left float64) {
	for _, r := range rows {
		used += r.Used
		budgeted += r.Budgeted
	}
	return used, budgeted, budgeted - used
}
