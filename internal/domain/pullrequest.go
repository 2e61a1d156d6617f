// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// Source identifies the platform a pull request was fetched from.
type Source string

const (
	SourceGitHub Source = "github"
	SourceGitLab Source = "gitlab"
)

// ReviewState is the state of a review, used both per reviewer and
// for the aggregate state of a whole pull request.
type ReviewState string

const (
	ReviewApproved         ReviewState = "approved"
	ReviewChangesRequested ReviewState = "changes_requested"
	ReviewCommented        ReviewState = "commented"
	ReviewPending          ReviewState = "pending"
)

// PipelineStatus is the normalized CI status of the latest pipeline run.
type PipelineStatus string

const (
	PipelineSuccess PipelineStatus = "success"
	PipelineFailed  PipelineStatus = "failed"
	PipelineWarning PipelineStatus = "warning"
	PipelinePending PipelineStatus = "pending"
	PipelineUnknown PipelineStatus = "unknown"
)

// User is a platform account referenced by a pull request.
type User struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// Reviewer is a user together with their resolved review status on one
// pull request.
type Reviewer struct {
	User
	Status ReviewState `json:"status"`
}

// CommentStats counts resolvable discussion threads only, not raw notes.
type CommentStats struct {
	Resolved int `json:"resolved"`
	Total    int `json:"total"`
}

// Approvals tracks distinct approving users against the platform-reported
// threshold. GitHub does not expose a threshold, so Required is fixed at 1
// there.
type Approvals struct {
	Given    int `json:"given"`
	Required int `json:"required"`
}

// Changes is the diff size summary of a pull request.
type Changes struct {
	Files     int `json:"files"`
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// PullRequest is the unified entity both platform gateways produce.
// It is constructed once per fetch cycle and never mutated afterwards.
type PullRequest struct {
	// ID is the platform-local number (GitHub) or iid (GitLab) as a string.
	ID string `json:"id"`
	// UniqueKey is "owner/repo#number" or "project-path#iid" and is unique
	// within one aggregation run.
	UniqueKey string `json:"unique_key"`
	Source    Source `json:"source"`

	Title     string    `json:"title"`
	URL       string    `json:"url"`
	RepoName  string    `json:"repo_name"`
	UpdatedAt time.Time `json:"updated_at"`

	Author    User       `json:"author"`
	Reviewers []Reviewer `json:"reviewers"`

	PipelineStatus PipelineStatus `json:"pipeline_status"`
	CommentStats   CommentStats   `json:"comment_stats"`
	Approvals      Approvals      `json:"approvals"`
	Changes        Changes        `json:"changes"`

	IsAuthor           bool        `json:"is_author"`
	IsReviewer         bool        `json:"is_reviewer"`
	MyReviewState      ReviewState `json:"my_review_state"`
	OverallReviewState ReviewState `json:"overall_review_state"`
}
