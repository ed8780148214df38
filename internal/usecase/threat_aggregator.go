package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/wekeepgrowing/mailshield/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/mailshield/internal/domain/errors"
	"github.com/wekeepgrowing/mailshield/internal/domain/repository"
)

const dateKey = "2006-01-02"

// weekdayOrder is the display order of the weekly series
var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// ThreatAggregator reshapes the pre-aggregated threat tables into dense chart
// series. Every bucket carries all four severities, zero when no row exists.
type ThreatAggregator struct {
	stats repository.ThreatStatsRepository
	now   func() time.Time
}

func NewThreatAggregator(stats repository.ThreatStatsRepository) *ThreatAggregator {
	return &ThreatAggregator{stats: stats, now: time.Now}
}

// History returns the threat series for mode: 7 entries Mon..Sun for weekly,
// one per day of the current month for monthly and Jan..Dec for yearly.
func (a *ThreatAggregator) History(ctx context.Context, accountID, mode string) ([]entity.ThreatPoint, error) {
	today := startOfDay(a.now())

	switch mode {
	case entity.ModeWeekly:
		return a.weekly(ctx, accountID, today)
	case entity.ModeMonthly:
		return a.monthly(ctx, accountID, today)
	case entity.ModeYearly:
		return a.yearly(ctx, accountID, today)
	default:
		return nil, domainErrors.ErrInvalidMode
	}
}

// weekly assembles the trailing 7 days oldest first, then reorders them by
// weekday so the series always reads Mon..Sun.
func (a *ThreatAggregator) weekly(ctx context.Context, accountID string, today time.Time) ([]entity.ThreatPoint, error) {
	from := today.AddDate(0, 0, -6)
	rows, err := a.stats.ListDaily(ctx, accountID, from, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly threat stats: %w", err)
	}

	points := make([]entity.ThreatPoint, 7)
	index := make(map[string]int, 7)
	byWeekday := make(map[time.Weekday]int, 7)
	for i := range points {
		day := from.AddDate(0, 0, i)
		points[i].Label = day.Weekday().String()[:3]
		index[day.Format(dateKey)] = i
		byWeekday[day.Weekday()] = i
	}
	for _, row := range rows {
		if i, ok := index[row.StatDate.Format(dateKey)]; ok {
			points[i].Add(row.ThreatLevel, row.Count)
		}
	}

	ordered := make([]entity.ThreatPoint, 0, 7)
	for _, wd := range weekdayOrder {
		ordered = append(ordered, points[byWeekday[wd]])
	}
	return ordered, nil
}

func (a *ThreatAggregator) monthly(ctx context.Context, accountID string, today time.Time) ([]entity.ThreatPoint, error) {
	from := startOfMonth(today)
	to := from.AddDate(0, 1, 0)
	rows, err := a.stats.ListDaily(ctx, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly threat stats: %w", err)
	}

	days := to.AddDate(0, 0, -1).Day()
	points := make([]entity.ThreatPoint, days)
	for i := range points {
		points[i].Label = strconv.Itoa(i + 1)
	}
	for _, row := range rows {
		if d := row.StatDate.Day(); row.StatDate.Month() == from.Month() && d >= 1 && d <= days {
			points[d-1].Add(row.ThreatLevel, row.Count)
		}
	}
	return points, nil
}

func (a *ThreatAggregator) yearly(ctx context.Context, accountID string, today time.Time) ([]entity.ThreatPoint, error) {
	from := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	rows, err := a.stats.ListMonthly(ctx, accountID, from, from.AddDate(1, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to load yearly threat stats: %w", err)
	}

	points := make([]entity.ThreatPoint, 12)
	for i := range points {
		points[i].Label = time.Month(i + 1).String()[:3]
	}
	for _, row := range rows {
		if row.StatMonth.Year() == from.Year() {
			points[row.StatMonth.Month()-1].Add(row.ThreatLevel, row.Count)
		}
	}
	return points, nil
}

// Categories totals threats per category over the window of mode, largest
// first with ties broken by name.
func (a *ThreatAggregator) Categories(ctx context.Context, accountID, mode string) ([]entity.CategoryCount, error) {
	today := startOfDay(a.now())

	switch mode {
	case entity.ModeWeekly:
		return a.CategoriesBetween(ctx, accountID, today.AddDate(0, 0, -6), today.AddDate(0, 0, 1))
	case entity.ModeMonthly:
		from := startOfMonth(today)
		return a.CategoriesBetween(ctx, accountID, from, from.AddDate(0, 1, 0))
	case entity.ModeYearly:
		from := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		rows, err := a.stats.ListMonthly(ctx, accountID, from, from.AddDate(1, 0, 0))
		if err != nil {
			return nil, fmt.Errorf("failed to load yearly threat stats: %w", err)
		}
		totals := make(map[string]int64)
		for _, row := range rows {
			totals[row.Category] += row.Count
		}
		return sortCategories(totals), nil
	default:
		return nil, domainErrors.ErrInvalidMode
	}
}

// CategoriesBetween totals daily rows in [from, to) per category
func (a *ThreatAggregator) CategoriesBetween(ctx context.Context, accountID string, from, to time.Time) ([]entity.CategoryCount, error) {
	rows, err := a.stats.ListDaily(ctx, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load threat stats: %w", err)
	}
	totals := make(map[string]int64)
	for _, row := range rows {
		totals[row.Category] += row.Count
	}
	return sortCategories(totals), nil
}

func sortCategories(totals map[string]int64) []entity.CategoryCount {
	out := make([]entity.CategoryCount, 0, len(totals))
	for category, count := range totals {
		out = append(out, entity.CategoryCount{Category: category, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
