// Package progress builds per-exercise time series from the set log, ready
// for charting: one value per calendar day, range-filtered and optionally
// smoothed with a trailing moving average.
package progress

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repregret/internal/models"
	"github.com/claude/repregret/internal/storage"
)

// Metric selects the per-set value that feeds the series.
type Metric string

const (
	// MetricWeight is the raw set weight; days reduce to their maximum.
	MetricWeight Metric = "weight"
	// MetricVolume is weight times reps; days reduce to their sum.
	MetricVolume Metric = "volume"
	// MetricEst1RM is the Epley estimate; days reduce to their maximum.
	MetricEst1RM Metric = "est1rm"
)

// ParseMetric validates a metric name from the wire.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricWeight, MetricVolume, MetricEst1RM:
		return Metric(s), nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Range is a trailing day count; RangeAll keeps the full history.
type Range int

const RangeAll Range = 0

// ParseRange accepts "7", "30", "90" or "all".
func ParseRange(s string) (Range, error) {
	switch s {
	case "7":
		return Range(7), nil
	case "30":
		return Range(30), nil
	case "90":
		return Range(90), nil
	case "all", "":
		return RangeAll, nil
	}
	return 0, fmt.Errorf("unknown range %q", s)
}

// Point is one charted day.
type Point struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Value float64 `json:"value"`
}

// Series is the raw per-day series and, when requested, a parallel smoothed
// series over the same dates.
type Series struct {
	Points   []Point `json:"points"`
	Smoothed []Point `json:"smoothed,omitempty"`
}

// Options narrow and shape a series.
type Options struct {
	Metric        Metric
	Range         Range
	ExcludeWarmup bool
	Smooth        bool
}

const smaWindow = 7

// Aggregator reads sets and sessions from the store; it never writes.
type Aggregator struct {
	db *storage.DB
}

// New creates an aggregator over the given store.
func New(db *storage.DB) *Aggregator {
	return &Aggregator{db: db}
}

// Series produces the time series for one exercise. An exercise with no
// matching sets yields an empty series, not an error.
func (a *Aggregator) Series(ctx context.Context, exerciseID uuid.UUID, opts Options) (Series, error) {
	sets, err := a.db.ListSetLogs(ctx, storage.SetFilter{ExerciseID: &exerciseID})
	if err != nil {
		return Series{}, err
	}
	sessions, err := a.db.ListSessions(ctx, false)
	if err != nil {
		return Series{}, err
	}

	starts := make(map[uuid.UUID]time.Time, len(sessions))
	for _, s := range sessions {
		starts[s.ID] = s.StartedAt
	}
	return Build(sets, starts, opts, time.Now()), nil
}

// Build is the pure aggregation pipeline: join each set to its session's
// start date (the attribution date for every set of that session, regardless
// of the set's own completion time), reduce per day, sort, range-filter
// against today, and optionally smooth.
func Build(sets []models.SetLog, sessionStarts map[uuid.UUID]time.Time, opts Options, today time.Time) Series {
	byDate := make(map[string][]float64)
	for _, l := range sets {
		if opts.ExcludeWarmup && l.IsWarmup {
			continue
		}
		started, ok := sessionStarts[l.SessionID]
		if !ok {
			continue
		}
		date := started.UTC().Format("2006-01-02")

		var v float64
		switch opts.Metric {
		case MetricVolume:
			v = models.Volume(l.Weight, l.Reps)
		case MetricEst1RM:
			v = models.Est1RM(l.Weight, l.Reps)
		default:
			v = l.Weight
		}
		byDate[date] = append(byDate[date], v)
	}

	points := make([]Point, 0, len(byDate))
	for date, vals := range byDate {
		var value float64
		if opts.Metric == MetricVolume {
			// Volume is a daily total of work done; weight and est-1RM
			// are a daily peak.
			for _, v := range vals {
				value += v
			}
		} else {
			value = vals[0]
			for _, v := range vals[1:] {
				if v > value {
					value = v
				}
			}
		}
		points = append(points, Point{Date: date, Value: value})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })

	points = applyRange(points, opts.Range, today)

	s := Series{Points: points}
	if opts.Smooth {
		s.Smoothed = sma(points, smaWindow)
	}
	return s
}

// applyRange keeps dates within [today-(n-1) days, today]. Date keys sort
// lexicographically, so string comparison is enough.
func applyRange(points []Point, r Range, today time.Time) []Point {
	if r == RangeAll {
		return points
	}
	day := today.UTC()
	from := day.AddDate(0, 0, -int(r)+1).Format("2006-01-02")
	to := day.Format("2006-01-02")

	out := points[:0:0]
	for _, p := range points {
		if p.Date >= from && p.Date <= to {
			out = append(out, p)
		}
	}
	return out
}

// sma computes a trailing simple moving average: each point averages the
// values from max(0, i-window+1) through i, so the window grows at the start
// instead of padding with missing values.
func sma(points []Point, window int) []Point {
	if len(points) == 0 {
		return nil
	}
	out := make([]Point, len(points))
	var sum float64
	for i, p := range points {
		sum += p.Value
		if i >= window {
			sum -= points[i-window].Value
		}
		n := i + 1
		if n > window {
			n = window
		}
		avg := sum / float64(n)
		out[i] = Point{Date: p.Date, Value: math.Round(avg*100) / 100}
	}
	return out
}
