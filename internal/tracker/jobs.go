package tracker

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"time"

	"price-dashboard/internal/tracker/cache"
)

type JobStatus string

const (
	JobSuccess    JobStatus = "success"
	JobFailed     JobStatus = "failed"
	JobInProgress JobStatus = "in-progress"
)

// ScrapingJob is one run of the external scraper against a product. The
// backend exposes no jobs endpoint yet, so the history view is fed by
// deterministic sample jobs derived from the tracked products.
type ScrapingJob struct {
	ID           string
	ProductID    string
	ProductName  string
	Status       JobStatus
	StartTime    time.Time
	EndTime      time.Time
	DurationSec  int
	PriceFound   float64
	OldPrice     float64
	ErrorMessage string
	RetryCount   int
}

type JobSummary struct {
	Total          int
	Succeeded      int
	Failed         int
	InProgress     int
	SuccessRatePct float64
	AvgDurationSec float64
}

const (
	jobsPerProduct = 3
	jobInterval    = 6 * time.Hour
)

// ScrapingJobs returns the recent scraping runs for every tracked product,
// newest first, plus a filtered summary when status is non-empty.
func (s *Service) ScrapingJobs(ctx context.Context, status JobStatus) ([]ScrapingJob, JobSummary, cache.Result) {
	products, res := s.Products(ctx)
	jobs := SampleJobs(products, time.Now())
	if status != "" {
		filtered := jobs[:0]
		for _, job := range jobs {
			if job.Status == status {
				filtered = append(filtered, job)
			}
		}
		jobs = filtered
	}
	return jobs, Summarize(jobs), res
}

// SampleJobs fabricates a stable run history: the same products always
// yield the same jobs, so the view does not churn between renders.
func SampleJobs(products []Product, now time.Time) []ScrapingJob {
	jobs := make([]ScrapingJob, 0, len(products)*jobsPerProduct)
	for _, p := range products {
		seed := hashID(p.ID)
		anchor := p.LastScrapedAt
		if anchor.IsZero() {
			anchor = now.Add(-time.Duration(seed%120) * time.Minute)
		}

		for i := 0; i < jobsPerProduct; i++ {
			start := anchor.Add(-time.Duration(i) * jobInterval)
			job := ScrapingJob{
				ID:          fmt.Sprintf("job-%s-%d", p.ID, i+1),
				ProductID:   p.ID,
				ProductName: p.Name,
				StartTime:   start,
			}

			switch (seed + uint64(i)) % 5 {
			case 0:
				job.Status = JobFailed
				job.DurationSec = int(10 + (seed+uint64(i))%25)
				job.EndTime = start.Add(time.Duration(job.DurationSec) * time.Second)
				job.ErrorMessage = "product page not accessible"
				job.RetryCount = int((seed + uint64(i)) % 3)
			case 1:
				if i == 0 {
					job.Status = JobInProgress
					break
				}
				fallthrough
			default:
				job.Status = JobSuccess
				job.DurationSec = int(5 + (seed+uint64(i))%20)
				job.EndTime = start.Add(time.Duration(job.DurationSec) * time.Second)
				job.PriceFound = jitterPrice(p.CurrentPrice, seed, i)
				job.OldPrice = jitterPrice(p.CurrentPrice, seed, i+1)
			}

			jobs = append(jobs, job)
		}
	}

	sort.SliceStable(jobs, func(a, b int) bool {
		return jobs[a].StartTime.After(jobs[b].StartTime)
	})
	return jobs
}

func Summarize(jobs []ScrapingJob) JobSummary {
	summary := JobSummary{Total: len(jobs)}
	durationSum := 0
	finished := 0
	for _, job := range jobs {
		switch job.Status {
		case JobSuccess:
			summary.Succeeded++
		case JobFailed:
			summary.Failed++
		case JobInProgress:
			summary.InProgress++
		}
		if job.DurationSec > 0 {
			durationSum += job.DurationSec
			finished++
		}
	}
	if finished > 0 {
		summary.AvgDurationSec = float64(durationSum) / float64(finished)
	}
	if summary.Succeeded+summary.Failed > 0 {
		summary.SuccessRatePct = float64(summary.Succeeded) / float64(summary.Succeeded+summary.Failed) * 100
	}
	return summary
}

func hashID(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func jitterPrice(price float64, seed uint64, i int) float64 {
	if price <= 0 {
		return 0
	}
	// Within ±5% of the current price, rounded to cents.
	delta := float64((seed+uint64(i))%11)/100 - 0.05
	return math.Round(price*(1+delta)*100) / 100
}
