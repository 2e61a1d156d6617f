package usecase

import "github.com/dashgit/dashgit/internal/domain"

// Section pairs one bucket with the pull requests classified into it.
// All seven sections are always present, in priority order, so the
// presentation layer gets a stable shape.
type Section struct {
	Bucket       domain.Bucket        `json:"bucket"`
	PullRequests []domain.PullRequest `json:"pull_requests"`
}

// Classify partitions the aggregated collection into the seven status
// buckets. Rules are evaluated top to bottom and the first match wins,
// so every pull request lands in at most one section. Input order is
// preserved within each section.
func Classify(prs []domain.PullRequest) []Section {
	buckets := domain.Buckets()
	sections := make([]Section, len(buckets))
	index := make(map[domain.Bucket]int, len(buckets))
	for i, b := range buckets {
		sections[i] = Section{Bucket: b, PullRequests: []domain.PullRequest{}}
		index[b] = i
	}

	for _, pr := range prs {
		bucket, ok := classify(pr)
		if !ok {
			// Neither author nor reviewer: should not occur given the
			// query scope, dropped from the view if it does.
			continue
		}
		i := index[bucket]
		sections[i].PullRequests = append(sections[i].PullRequests, pr)
	}
	return sections
}

func classify(pr domain.PullRequest) (domain.Bucket, bool) {
	switch {
	case pr.IsAuthor && (pr.OverallReviewState == domain.ReviewChangesRequested || pr.PipelineStatus == domain.PipelineFailed):
		return domain.BucketReturnedToYou, true
	case pr.IsAuthor && pr.OverallReviewState == domain.ReviewApproved:
		return domain.BucketApprovedByOthers, true
	case pr.IsAuthor && pr.Approvals.Given < pr.Approvals.Required:
		return domain.BucketWaitingForApprovals, true
	case pr.IsAuthor:
		return domain.BucketYourMergeRequests, true
	case pr.IsReviewer && pr.MyReviewState == domain.ReviewApproved:
		return domain.BucketApprovedByYou, true
	case pr.IsReviewer && (pr.MyReviewState == domain.ReviewChangesRequested || pr.MyReviewState == domain.ReviewCommented):
		return domain.BucketWaitingForAuthor, true
	case pr.IsReviewer && pr.MyReviewState == domain.ReviewPending:
		return domain.BucketReviewRequested, true
	}
	return "", false
}
