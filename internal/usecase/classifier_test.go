package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashgit/dashgit/internal/domain"
)

func TestClassify_BucketRules(t *testing.T) {
	testCases := []struct {
		name     string
		pr       domain.PullRequest
		expected domain.Bucket
		dropped  bool
	}{
		{
			name: "author with changes requested is returned to you",
			pr: domain.PullRequest{
				IsAuthor:           true,
				OverallReviewState: domain.ReviewChangesRequested,
				PipelineStatus:     domain.PipelineSuccess,
			},
			expected: domain.BucketReturnedToYou,
		},
		{
			name: "author with failed pipeline is returned to you even when approved",
			pr: domain.PullRequest{
				IsAuthor:           true,
				OverallReviewState: domain.ReviewApproved,
				PipelineStatus:     domain.PipelineFailed,
			},
			expected: domain.BucketReturnedToYou,
		},
		{
			name: "author with approval is approved by others",
			pr: domain.PullRequest{
				IsAuthor:           true,
				OverallReviewState: domain.ReviewApproved,
				PipelineStatus:     domain.PipelineSuccess,
			},
			expected: domain.BucketApprovedByOthers,
		},
		{
			name: "author short on approvals is waiting for approvals",
			pr: domain.PullRequest{
				IsAuthor:           true,
				OverallReviewState: domain.ReviewPending,
				PipelineStatus:     domain.PipelineSuccess,
				Approvals:          domain.Approvals{Given: 1, Required: 2},
			},
			expected: domain.BucketWaitingForApprovals,
		},
		{
			name: "author with nothing special is your merge requests",
			pr: domain.PullRequest{
				IsAuthor:           true,
				OverallReviewState: domain.ReviewPending,
				PipelineStatus:     domain.PipelineSuccess,
				Approvals:          domain.Approvals{Given: 1, Required: 1},
			},
			expected: domain.BucketYourMergeRequests,
		},
		{
			name: "reviewer who approved is approved by you",
			pr: domain.PullRequest{
				IsReviewer:    true,
				MyReviewState: domain.ReviewApproved,
			},
			expected: domain.BucketApprovedByYou,
		},
		{
			name: "reviewer who requested changes is waiting for the author",
			pr: domain.PullRequest{
				IsReviewer:    true,
				MyReviewState: domain.ReviewChangesRequested,
			},
			expected: domain.BucketWaitingForAuthor,
		},
		{
			name: "reviewer who commented is waiting for the author",
			pr: domain.PullRequest{
				IsReviewer:    true,
				MyReviewState: domain.ReviewCommented,
			},
			expected: domain.BucketWaitingForAuthor,
		},
		{
			name: "reviewer with a pending review is review requested",
			pr: domain.PullRequest{
				IsReviewer:    true,
				MyReviewState: domain.ReviewPending,
			},
			expected: domain.BucketReviewRequested,
		},
		{
			name:    "neither author nor reviewer is silently dropped",
			pr:      domain.PullRequest{},
			dropped: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bucket, ok := classify(tc.pr)
			if tc.dropped {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tc.expected, bucket)
		})
	}
}

func TestClassify_EndToEndScenarios(t *testing.T) {
	// Scenarios from the dashboard's acceptance checklist.
	returned := domain.PullRequest{
		UniqueKey:          "a#1",
		IsAuthor:           true,
		OverallReviewState: domain.ReviewChangesRequested,
		PipelineStatus:     domain.PipelineSuccess,
	}
	requested := domain.PullRequest{
		UniqueKey:     "a#2",
		IsReviewer:    true,
		MyReviewState: domain.ReviewPending,
	}
	waiting := domain.PullRequest{
		UniqueKey:          "a#3",
		IsAuthor:           true,
		OverallReviewState: domain.ReviewPending,
		PipelineStatus:     domain.PipelineSuccess,
		Approvals:          domain.Approvals{Given: 1, Required: 2},
	}

	sections := Classify([]domain.PullRequest{returned, requested, waiting})
	assert.Equal(t, []string{"a#1"}, sectionKeys(sections, domain.BucketReturnedToYou))
	assert.Equal(t, []string{"a#2"}, sectionKeys(sections, domain.BucketReviewRequested))
	assert.Equal(t, []string{"a#3"}, sectionKeys(sections, domain.BucketWaitingForApprovals))
}

func TestClassify_BucketsAreExclusiveAndStable(t *testing.T) {
	prs := []domain.PullRequest{
		{UniqueKey: "a#1", IsAuthor: true, IsReviewer: true, OverallReviewState: domain.ReviewApproved, MyReviewState: domain.ReviewApproved},
		{UniqueKey: "a#2", IsAuthor: true, OverallReviewState: domain.ReviewChangesRequested},
		{UniqueKey: "a#3", IsReviewer: true, MyReviewState: domain.ReviewPending},
		{UniqueKey: "a#4"},
	}

	sections := Classify(prs)

	// Always seven sections in priority order, empties included.
	require.Len(t, sections, 7)
	for i, bucket := range domain.Buckets() {
		assert.Equal(t, bucket, sections[i].Bucket)
	}

	// Every item appears in at most one section.
	counts := make(map[string]int)
	total := 0
	for _, section := range sections {
		for _, item := range section.PullRequests {
			counts[item.UniqueKey]++
			total++
		}
	}
	for key, n := range counts {
		assert.Equal(t, 1, n, "key %s classified %d times", key, n)
	}
	// a#4 is neither author nor reviewer and was dropped.
	assert.Equal(t, 3, total)
	assert.NotContains(t, counts, "a#4")

	// Author rules outrank reviewer rules: a#1 went to the author bucket.
	assert.Equal(t, []string{"a#1"}, sectionKeys(sections, domain.BucketApprovedByOthers))
}

func sectionKeys(sections []Section, bucket domain.Bucket) []string {
	for _, section := range sections {
		if section.Bucket != bucket {
			continue
		}
		keys := make([]string, 0, len(section.PullRequests))
		for _, item := range section.PullRequests {
			keys = append(keys, item.UniqueKey)
		}
		return keys
	}
	return nil
}
