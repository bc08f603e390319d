package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/getflash/salesops/pkg/models"
	"github.com/getflash/salesops/pkg/workflow"
)

// RevenuePerConversion is the assumed revenue of one signed-up account,
// used by the territory rollup.
const RevenuePerConversion = 5000

// RepStats is one row of the sales rep scoreboard.
type RepStats struct {
	Username           string  `json:"username"`
	TotalSubmissions   int     `json:"totalSubmissions"`
	SignedUp           int     `json:"signedUp"`
	ConversionRate     float64 `json:"conversionRate"`
	AvgInterestLevel   float64 `json:"avgInterestLevel"`
	TotalInterestScore int     `json:"totalInterestScore"`
	PackageSeen        int     `json:"packageSeen"`
	PackageSeenRate    float64 `json:"packageSeenRate"`
}

// TerritoryRep is one rep/territory cell of the territory dashboard.
type TerritoryRep struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Territory      string  `json:"territory"`
	ActiveLeads    int     `json:"activeLeads"`
	TotalRevenue   int     `json:"totalRevenue"`
	ConversionRate float64 `json:"conversionRate"`
}

// LeadStats are the headline lead counters.
type LeadStats struct {
	TotalLeads     int     `json:"totalLeads"`
	ActiveLeads    int     `json:"activeLeads"`
	NewLeads       int     `json:"newLeads"`
	StaleLeads     int     `json:"staleLeads"`
	ConversionRate float64 `json:"conversionRate"`
}

// StageCount is one pipeline stage's population.
type StageCount struct {
	Stage workflow.Stage `json:"stage"`
	Count int            `json:"count"`
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

// ComputeStats aggregates the dashboard headline numbers. A submission
// counts as interested for the monthly series when its interest level
// is 3 or higher.
func ComputeStats(subs []models.Submission) models.SubmissionStats {
	stats := models.SubmissionStats{InterestedByMonth: []models.MonthlyCount{}}
	stats.Total = len(subs)

	totalInterest := 0
	packageSeen := 0
	byMonth := map[string]int{}

	for _, s := range subs {
		if s.SignedUp {
			stats.SignedUp++
		}
		if s.PackageSeen {
			packageSeen++
		}
		totalInterest += s.InterestLevel
		if s.InterestLevel >= 3 {
			byMonth[s.Timestamp.Format("2006-01")]++
		}
	}

	if stats.Total > 0 {
		stats.AvgInterestLevel = float64(totalInterest) / float64(stats.Total)
		stats.PackageSeenPercentage = float64(packageSeen) / float64(stats.Total) * 100
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	for _, m := range months {
		stats.InterestedByMonth = append(stats.InterestedByMonth, models.MonthlyCount{Month: m, Count: byMonth[m]})
	}

	return stats
}

// ComputeRepStats builds the scoreboard, one row per rep, ordered by
// signups then submission volume.
func ComputeRepStats(subs []models.Submission) []RepStats {
	byRep := map[string]*RepStats{}

	for _, s := range subs {
		rep := s.AssignedRep()
		row, ok := byRep[rep]
		if !ok {
			row = &RepStats{Username: rep}
			byRep[rep] = row
		}

		row.TotalSubmissions++
		row.TotalInterestScore += s.InterestLevel
		if s.SignedUp {
			row.SignedUp++
		}
		if s.PackageSeen {
			row.PackageSeen++
		}
	}

	rows := make([]RepStats, 0, len(byRep))
	for _, row := range byRep {
		row.ConversionRate = rate(row.SignedUp, row.TotalSubmissions)
		row.PackageSeenRate = rate(row.PackageSeen, row.TotalSubmissions)
		if row.TotalSubmissions > 0 {
			row.AvgInterestLevel = round1(float64(row.TotalInterestScore) / float64(row.TotalSubmissions))
		}
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SignedUp != rows[j].SignedUp {
			return rows[i].SignedUp > rows[j].SignedUp
		}
		if rows[i].TotalSubmissions != rows[j].TotalSubmissions {
			return rows[i].TotalSubmissions > rows[j].TotalSubmissions
		}
		return rows[i].Username < rows[j].Username
	})
	return rows
}

// ComputeTerritoryRollup groups active leads by rep and territory.
// Revenue assumes a flat amount per conversion; conversion rates are
// computed over all of the rep's submissions in that territory, not
// just the active ones. Cells without active leads are dropped.
func ComputeTerritoryRollup(subs []models.Submission, now time.Time) []TerritoryRep {
	cells := map[string]*TerritoryRep{}

	for i := range subs {
		s := &subs[i]
		if !workflow.IsActiveLeadAt(s, now) {
			continue
		}
		key := s.AssignedRep() + "-" + s.Region()
		cell, ok := cells[key]
		if !ok {
			cell = &TerritoryRep{ID: key, Name: s.AssignedRep(), Territory: s.Region()}
			cells[key] = cell
		}
		cell.ActiveLeads++
	}

	totals := map[string]int{}
	conversions := map[string]int{}
	for i := range subs {
		s := &subs[i]
		key := s.AssignedRep() + "-" + s.Region()
		totals[key]++
		if s.SignedUp {
			conversions[key]++
			if cell, ok := cells[key]; ok {
				cell.TotalRevenue += RevenuePerConversion
			}
		}
	}

	rows := make([]TerritoryRep, 0, len(cells))
	for key, cell := range cells {
		cell.ConversionRate = rate(conversions[key], totals[key])
		rows = append(rows, *cell)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].Territory < rows[j].Territory
	})
	return rows
}

// ComputeLeadStats counts leads by activity class.
func ComputeLeadStats(subs []models.Submission, now time.Time) LeadStats {
	stats := LeadStats{TotalLeads: len(subs)}
	signedUp := 0

	for i := range subs {
		s := &subs[i]
		if workflow.IsActiveLeadAt(s, now) {
			stats.ActiveLeads++
		}
		if workflow.IsNewLeadAt(s, now) {
			stats.NewLeads++
		}
		if workflow.IsStaleLeadAt(s, now) {
			stats.StaleLeads++
		}
		if s.SignedUp {
			signedUp++
		}
	}

	stats.ConversionRate = rate(signedUp, len(subs))
	return stats
}

// ComputeStageFunnel counts submissions per derived pipeline stage,
// in pipeline order.
func ComputeStageFunnel(subs []models.Submission) []StageCount {
	counts := map[workflow.Stage]int{}
	for i := range subs {
		counts[workflow.DeriveStage(&subs[i])]++
	}

	funnel := make([]StageCount, 0, len(workflow.Stages()))
	for _, stage := range workflow.Stages() {
		funnel = append(funnel, StageCount{Stage: stage, Count: counts[stage]})
	}
	return funnel
}
