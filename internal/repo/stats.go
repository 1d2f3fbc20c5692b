// Package repo implements the persistence layer for the salon site. This
// file provides a small aggregate query used by the admin dashboard.
package repo

import (
	"context"
	"time"
)

// Summary holds collection sizes and the newest booking time.
type Summary struct {
	Blocks        int        `json:"blocks"`
	Services      int        `json:"services"`
	Reviews       int        `json:"reviews"`
	Requests      int        `json:"requests"`
	Subscribers   int        `json:"subscribers"`
	Images        int        `json:"images"`
	LastRequestAt *time.Time `json:"lastRequestAt"`
}

// Summarize counts every collection of st. It goes through the public
// contract so it works the same for every strategy.
func Summarize(ctx context.Context, st Store) (Summary, error) {
	var (
		s   Summary
		err error
	)
	if s.Blocks, err = count(ctx, st.Blocks()); err != nil {
		return Summary{}, err
	}
	if s.Services, err = count(ctx, st.Services()); err != nil {
		return Summary{}, err
	}
	if s.Reviews, err = count(ctx, st.Reviews()); err != nil {
		return Summary{}, err
	}
	if s.Subscribers, err = count(ctx, st.Subscribers()); err != nil {
		return Summary{}, err
	}
	if s.Images, err = count(ctx, st.Images()); err != nil {
		return Summary{}, err
	}
	reqs, err := st.Requests().List(ctx)
	if err != nil {
		return Summary{}, err
	}
	s.Requests = len(reqs)
	if len(reqs) > 0 {
		// List is newest first.
		t := reqs[0].CreatedAt
		s.LastRequestAt = &t
	}
	return s, nil
}

func count[T any, P Patch[T]](ctx context.Context, c Collection[T, P]) (int, error) {
	all, err := c.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}
