package dashboard

import (
	"fmt"
	"time"

	"revisehub/internal/model"
)

const (
	weekCount = 4
	week      = 7 * 24 * time.Hour
)

// WeekBuckets returns the four trailing 7-day windows ending at now, oldest first.
// Week 4 is [now-7d, now).
func WeekBuckets(now time.Time) []model.WeekBucket {
	buckets := make([]model.WeekBucket, weekCount)
	for i := range buckets {
		start := now.Add(-time.Duration(weekCount-i) * week)
		buckets[i] = model.WeekBucket{
			Label: fmt.Sprintf("Week %d", i+1),
			Start: start,
			End:   start.Add(week),
		}
	}
	return buckets
}

// prVelocity counts opened PRs per bucket and, among those, the ones merged in the same
// bucket. A PR merged in a later week than it was opened is not counted as merged.
func prVelocity(buckets []model.WeekBucket, pulls []model.PullRequest) []model.PRVelocityPoint {
	points := make([]model.PRVelocityPoint, len(buckets))
	for i, b := range buckets {
		points[i].Name = b.Label
		for _, pr := range pulls {
			if !b.Contains(pr.CreatedAt) {
				continue
			}
			points[i].Opened++
			if pr.MergedAt != nil && b.Contains(*pr.MergedAt) {
				points[i].Merged++
			}
		}
	}
	return points
}

// codeChurn sums line changes of the commits dated in each bucket.
func codeChurn(buckets []model.WeekBucket, records []model.CommitRecord) []model.CodeChurnPoint {
	points := make([]model.CodeChurnPoint, len(buckets))
	for i, b := range buckets {
		points[i].Name = b.Label
		for _, rec := range records {
			if b.Contains(rec.CommittedAt) {
				points[i].Additions += rec.Additions
				points[i].Deletions += rec.Deletions
			}
		}
	}
	return points
}

// foldContributors seeds the stats from the contributor listing and adds the line
// changes of every record. Order is seed order, then first appearance in records.
func foldContributors(contributors []model.Contributor, records []model.CommitRecord) []model.ContributorStat {
	var order []string
	stats := make(map[string]*model.ContributorStat)

	for _, c := range contributors {
		if c.Login == "" {
			continue
		}
		if _, ok := stats[c.Login]; ok {
			continue
		}
		stats[c.Login] = &model.ContributorStat{Name: c.Login, AvatarURL: c.AvatarURL, Commits: c.Contributions}
		order = append(order, c.Login)
	}

	for _, rec := range records {
		author := rec.Author()
		if author == "" {
			continue
		}
		stat, ok := stats[author]
		if !ok {
			stat = &model.ContributorStat{Name: author}
			stats[author] = stat
			order = append(order, author)
		}
		stat.Additions += rec.Additions
		stat.Deletions += rec.Deletions
	}

	out := make([]model.ContributorStat, 0, len(order))
	for _, name := range order {
		out = append(out, *stats[name])
	}
	return out
}
