package engagement

import (
	"context"
	"sync"
)

// LinkScorer is satisfied by *Scorer and by test fakes.
type LinkScorer interface {
	Score(ctx context.Context, url string) int
}

// ScoreAll scores links on up to concurrency workers. The returned slice is
// index-aligned with links, whatever order the fetches complete in.
func ScoreAll(ctx context.Context, scorer LinkScorer, links []string, concurrency int) []int {
	scores := make([]int, len(links))
	if len(links) == 0 {
		return scores
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if concurrency > len(links) {
		concurrency = len(links)
	}

	jobs := make(chan int, len(links))
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				scores[idx] = scorer.Score(ctx, links[idx])
			}
		}()
	}

	for i := range links {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return scores
}
