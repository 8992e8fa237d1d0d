// Package sentiment scores comment text on a compound scale in [-1, 1] and
// buckets scores into labels.
package sentiment

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-mentions/internal/apierr"
)

// ErrBadResponse indicates the model reply did not carry a usable score.
var ErrBadResponse = errors.New("unusable sentiment response")

// Label buckets a compound score.
type Label string

// Labels.
const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// Label thresholds on the compound score.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// LabelFor returns the label of a compound score.
func LabelFor(score float64) Label {
	switch {
	case score >= PositiveThreshold:
		return Positive
	case score <= NegativeThreshold:
		return Negative
	default:
		return Neutral
	}
}

// Scorer rates one text.
type Scorer interface {
	// Score returns a compound score in [-1, 1].
	Score(ctx context.Context, text string) (float64, error)
}

// Counts tallies labels. Unscored counts texts the scorer gave up on.
type Counts struct {
	Positive int
	Negative int
	Neutral  int
	Unscored int
}

// Add counts one label.
func (c *Counts) Add(l Label) {
	switch l {
	case Positive:
		c.Positive++
	case Negative:
		c.Negative++
	default:
		c.Neutral++
	}
}

// Result is the outcome for one text. Err is set when the text alone failed.
type Result struct {
	Score float64
	Err   error
}

// Fatal reports whether err ends a whole scoring run. Other failures only
// concern the text that caused them.
func Fatal(err error) bool {
	return errors.Is(err, apierr.ErrAuthFailed) ||
		errors.Is(err, apierr.ErrQuotaExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// ScoreAll scores texts with at most maxParallel requests in flight.
// Results keep the order of texts. A failure of one text is stored in its
// Result; a Fatal failure cancels the rest and is returned.
func ScoreAll(ctx context.Context, texts []string, s Scorer, maxParallel int) ([]Result, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if maxParallel < 1 {
		maxParallel = 1
	}

	results := make([]Result, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			score, err := s.Score(ctx, text)
			if err != nil {
				if Fatal(err) {
					return fmt.Errorf("text %d: %w", i, err)
				}
				results[i].Err = fmt.Errorf("text %d: %w", i, err)
				return nil
			}
			results[i].Score = score
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
