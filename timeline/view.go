package timeline

import (
	"fmt"

	"wuyrush.io/chronos/i18n"
	md "wuyrush.io/chronos/models"
)

// Node is a single cell of the rendered timeline: a year in the overview or a month in the detail
type Node struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"`
	Count int `json:"count"`
	// following fields are set on month nodes only
	Label         string         `json:"label,omitempty"`
	DateKey       string         `json:"dateKey,omitempty"`
	Constellation *Constellation `json:"constellation,omitempty"`
}

// View is the renderable timeline for a ViewState
type View struct {
	State ViewState `json:"state"`
	Nodes []Node    `json:"nodes"`
}

// DateKey names the first day of a month, which is what summaries are keyed by
func DateKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d-01", year, month)
}

// Render lays out cs according to s. cs is expected to be filtered already.
func Render(s ViewState, cs []*md.Capsule, lang i18n.Language) View {
	if s.Level == LevelMonthDetail {
		return View{State: s, Nodes: MonthNodes(s.Year, cs, lang)}
	}
	return View{State: s, Nodes: YearNodes(cs)}
}

// YearNodes renders one node per year of the display range
func YearNodes(cs []*md.Capsule) []Node {
	nodes := make([]Node, 0, md.MaxYear-md.MinYear+1)
	for y := md.MinYear; y <= md.MaxYear; y++ {
		nodes = append(nodes, Node{Year: y, Count: len(BucketByYear(cs, y))})
	}
	return nodes
}

// MonthNodes renders the twelve months of year along with their constellations
func MonthNodes(year int, cs []*md.Capsule, lang i18n.Language) []Node {
	nodes := make([]Node, 0, 12)
	for m := 1; m <= 12; m++ {
		bucket := BucketByYearMonth(cs, year, m)
		cons := Place(bucket)
		nodes = append(nodes, Node{
			Year:          year,
			Month:         m,
			Count:         len(bucket),
			Label:         i18n.MonthLabel(lang, m),
			DateKey:       DateKey(year, m),
			Constellation: &cons,
		})
	}
	return nodes
}

// Stats are the landing page figures
type Stats struct {
	ActiveCapsules int    `json:"activeCapsules"`
	TimeRange      string `json:"timeRange"`
}

func StatsOf(cs []*md.Capsule) Stats {
	return Stats{ActiveCapsules: len(cs), TimeRange: fmt.Sprintf("%d - %d", md.MinYear, md.MaxYear)}
}
