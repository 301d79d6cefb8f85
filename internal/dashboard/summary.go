package dashboard

import (
	"github.com/montanaflynn/stats"

	"revisehub/internal/model"
)

// Summarize derives descriptive statistics from aggregated dashboard data.
func Summarize(data *model.DashboardData) model.DashboardSummary {
	var summary model.DashboardSummary
	if data == nil {
		return summary
	}

	weeklyChurn := make(stats.Float64Data, 0, len(data.CodeChurn))
	for _, p := range data.CodeChurn {
		summary.TotalAdditions += p.Additions
		summary.TotalDeletions += p.Deletions
		weeklyChurn = append(weeklyChurn, float64(p.Additions+p.Deletions))
	}
	summary.MeanWeeklyChurn = orZero(stats.Mean(weeklyChurn))
	summary.MedianWeeklyChurn = orZero(stats.Median(weeklyChurn))

	weeklyOpened := make(stats.Float64Data, 0, len(data.PRVelocity))
	for _, p := range data.PRVelocity {
		summary.TotalOpened += p.Opened
		summary.TotalMerged += p.Merged
		weeklyOpened = append(weeklyOpened, float64(p.Opened))
	}
	summary.MeanWeeklyOpened = orZero(stats.Mean(weeklyOpened))
	if summary.TotalOpened > 0 {
		summary.MergeRatio = orZero(stats.Round(float64(summary.TotalMerged)/float64(summary.TotalOpened), 2))
	}

	top := -1
	for _, c := range data.Contributors {
		if c.Commits > top {
			top = c.Commits
			summary.TopContributor = c.Name
		}
	}
	return summary
}

// orZero drops the error stats returns for empty input.
func orZero(v float64, err error) float64 {
	if err != nil {
		return 0
	}
	return v
}
