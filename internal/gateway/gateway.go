// Package gateway provides gateways to the GitHub and GitLab APIs,
// abstracting away the underlying GraphQL and REST clients. Each gateway
// normalizes its platform's payload into the unified domain.PullRequest.
package gateway

import (
	"context"
	"fmt"

	"github.com/dashgit/dashgit/internal/domain"
)

// Fetcher defines the behavior of a platform gateway for fetching the
// open pull requests that involve the current user.
type Fetcher interface {
	Source() domain.Source
	FetchPullRequests(ctx context.Context) ([]domain.PullRequest, error)
}

// FetchError tags a transport or API failure with the platform it came
// from, so the caller can report one platform's outage without hiding
// the other platform's results.
type FetchError struct {
	Platform domain.Source
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Platform, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
