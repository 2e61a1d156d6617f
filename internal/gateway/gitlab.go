package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shurcooL/graphql"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/dashgit/dashgit/internal/domain"
)

// GitLabGateway fetches open merge requests involving the current user
// from a GitLab instance's GraphQL API. The host is configurable for
// self-hosted instances.
type GitLabGateway struct {
	host     string
	username string
	client   *graphql.Client
	logger   *zap.Logger
}

type gitlabUserNode struct {
	Name      string
	Username  string
	AvatarURL string `graphql:"avatarUrl"`
}

type gitlabMergeRequestNode struct {
	IID       string    `graphql:"iid"`
	Title     string
	WebURL    string    `graphql:"webUrl"`
	UpdatedAt time.Time `graphql:"updatedAt"`
	Project   struct {
		FullPath string
	}
	Author    gitlabUserNode
	Reviewers struct {
		Nodes []struct {
			Name                    string
			Username                string
			AvatarURL               string `graphql:"avatarUrl"`
			MergeRequestInteraction struct {
				ReviewState string
			}
		}
	} `graphql:"reviewers(first: 30)"`
	ApprovedBy struct {
		Nodes []struct {
			Username string
		}
	} `graphql:"approvedBy(first: 30)"`
	ApprovalsRequired int
	HeadPipeline      struct {
		Status         string
		DetailedStatus struct {
			Label string
		}
	}
	DiffStatsSummary struct {
		FileCount int
		Additions int
		Deletions int
	}
	Discussions struct {
		Nodes []struct {
			Resolvable bool
			Resolved   bool
		}
	} `graphql:"discussions(first: 100)"`
}

// The three facets are fetched as separate queries and merged by unique
// key; an MR the user authored and also reviews must appear once.
type authoredMergeRequestsQuery struct {
	CurrentUser struct {
		Username      string
		MergeRequests struct {
			Nodes []gitlabMergeRequestNode
		} `graphql:"authoredMergeRequests(state: opened, first: 50)"`
	} `graphql:"currentUser"`
}

type assignedMergeRequestsQuery struct {
	CurrentUser struct {
		MergeRequests struct {
			Nodes []gitlabMergeRequestNode
		} `graphql:"assignedMergeRequests(state: opened, first: 50)"`
	} `graphql:"currentUser"`
}

type reviewRequestedMergeRequestsQuery struct {
	CurrentUser struct {
		MergeRequests struct {
			Nodes []gitlabMergeRequestNode
		} `graphql:"reviewRequestedMergeRequests(state: opened, first: 50)"`
	} `graphql:"currentUser"`
}

// NewGitLabGateway creates a gateway for {host}/api/graphql using a
// bearer token.
func NewGitLabGateway(host, token, username string, logger *zap.Logger) *GitLabGateway {
	host = strings.TrimRight(host, "/")
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	return &GitLabGateway{
		host:     host,
		username: username,
		client:   graphql.NewClient(host+"/api/graphql", httpClient),
		logger:   logger,
	}
}

func (g *GitLabGateway) Source() domain.Source { return domain.SourceGitLab }

// FetchPullRequests returns the open merge requests where the user is
// author, assignee, or requested reviewer, merged into one set keyed by
// "project-path#iid" (first seen wins).
func (g *GitLabGateway) FetchPullRequests(ctx context.Context) ([]domain.PullRequest, error) {
	var authored authoredMergeRequestsQuery
	if err := g.client.Query(ctx, &authored, nil); err != nil {
		return nil, &FetchError{Platform: domain.SourceGitLab, Err: fmt.Errorf("failed to query authored merge requests: %w", err)}
	}
	var assigned assignedMergeRequestsQuery
	if err := g.client.Query(ctx, &assigned, nil); err != nil {
		return nil, &FetchError{Platform: domain.SourceGitLab, Err: fmt.Errorf("failed to query assigned merge requests: %w", err)}
	}
	var review reviewRequestedMergeRequestsQuery
	if err := g.client.Query(ctx, &review, nil); err != nil {
		return nil, &FetchError{Platform: domain.SourceGitLab, Err: fmt.Errorf("failed to query review-requested merge requests: %w", err)}
	}

	username := g.username
	if username == "" {
		username = authored.CurrentUser.Username
	}

	seen := make(map[string]bool)
	prs := []domain.PullRequest{}
	add := func(nodes []gitlabMergeRequestNode) {
		for _, node := range nodes {
			key := fmt.Sprintf("%s#%s", node.Project.FullPath, node.IID)
			if seen[key] {
				continue
			}
			seen[key] = true
			prs = append(prs, g.mapMergeRequest(node, username))
		}
	}
	add(authored.CurrentUser.MergeRequests.Nodes)
	add(assigned.CurrentUser.MergeRequests.Nodes)
	add(review.CurrentUser.MergeRequests.Nodes)

	g.logger.Debug("fetched GitLab merge requests", zap.Int("count", len(prs)))
	return prs, nil
}

// mapGitlabReviewState maps the platform's per-reviewer interaction
// state onto the unified enum.
func mapGitlabReviewState(state string) domain.ReviewState {
	switch state {
	case "APPROVED":
		return domain.ReviewApproved
	case "REQUESTED_CHANGES":
		return domain.ReviewChangesRequested
	case "REVIEWED":
		return domain.ReviewCommented
	default: // UNREVIEWED and anything newer
		return domain.ReviewPending
	}
}

// mapGitlabPipelineStatus prefers the human-readable detailed label when
// it signals a warning: "passed with warnings" is indistinguishable from
// plain success in the raw enum.
func mapGitlabPipelineStatus(status, label string) domain.PipelineStatus {
	if strings.Contains(strings.ToLower(label), "warning") {
		return domain.PipelineWarning
	}
	switch strings.ToLower(status) {
	case "":
		return domain.PipelineUnknown
	case "success", "passed":
		return domain.PipelineSuccess
	case "failed", "failure":
		return domain.PipelineFailed
	default: // running, pending, created, manual, and anything unrecognized
		return domain.PipelinePending
	}
}

// resolveAvatarURL resolves relative avatar paths, which self-hosted
// instances may return, against the configured host.
func resolveAvatarURL(host, avatar string) string {
	if avatar == "" || strings.Contains(avatar, "://") {
		return avatar
	}
	return host + "/" + strings.TrimLeft(avatar, "/")
}

func (g *GitLabGateway) mapMergeRequest(mr gitlabMergeRequestNode, username string) domain.PullRequest {
	me := strings.ToLower(username)

	approved := make(map[string]bool, len(mr.ApprovedBy.Nodes))
	for _, a := range mr.ApprovedBy.Nodes {
		approved[strings.ToLower(a.Username)] = true
	}

	seen := make(map[string]bool)
	reviewers := []domain.Reviewer{}
	for _, r := range mr.Reviewers.Nodes {
		key := strings.ToLower(r.Username)
		if r.Username == "" || seen[key] {
			continue
		}
		seen[key] = true
		status := mapGitlabReviewState(r.MergeRequestInteraction.ReviewState)
		// The explicit state can lag behind the approvals list on some
		// instances; the approvals list wins.
		if status == domain.ReviewPending && approved[key] {
			status = domain.ReviewApproved
		}
		name := r.Name
		if name == "" {
			name = r.Username
		}
		reviewers = append(reviewers, domain.Reviewer{
			User: domain.User{
				Name:      name,
				Username:  r.Username,
				AvatarURL: resolveAvatarURL(g.host, r.AvatarURL),
			},
			Status: status,
		})
	}

	approvals := domain.Approvals{Given: len(mr.ApprovedBy.Nodes), Required: mr.ApprovalsRequired}

	overall := domain.ReviewPending
	for _, r := range reviewers {
		if r.Status == domain.ReviewChangesRequested {
			overall = domain.ReviewChangesRequested
			break
		}
	}
	if overall == domain.ReviewPending && approvals.Required > 0 && approvals.Given >= approvals.Required {
		overall = domain.ReviewApproved
	}

	comments := domain.CommentStats{}
	for _, d := range mr.Discussions.Nodes {
		if !d.Resolvable {
			continue
		}
		comments.Total++
		if d.Resolved {
			comments.Resolved++
		}
	}

	isAuthor := me != "" && me == strings.ToLower(mr.Author.Username)
	isReviewer := seen[me]
	myState := domain.ReviewPending
	for _, r := range reviewers {
		if strings.ToLower(r.Username) == me {
			myState = r.Status
			break
		}
	}

	authorName := mr.Author.Name
	if authorName == "" {
		authorName = mr.Author.Username
	}

	return domain.PullRequest{
		ID:        mr.IID,
		UniqueKey: fmt.Sprintf("%s#%s", mr.Project.FullPath, mr.IID),
		Source:    domain.SourceGitLab,
		Title:     mr.Title,
		URL:       mr.WebURL,
		RepoName:  mr.Project.FullPath,
		UpdatedAt: mr.UpdatedAt,
		Author: domain.User{
			Name:      authorName,
			Username:  mr.Author.Username,
			AvatarURL: resolveAvatarURL(g.host, mr.Author.AvatarURL),
		},
		Reviewers:          reviewers,
		PipelineStatus:     mapGitlabPipelineStatus(mr.HeadPipeline.Status, mr.HeadPipeline.DetailedStatus.Label),
		CommentStats:       comments,
		Approvals:          approvals,
		Changes:            domain.Changes{Files: mr.DiffStatsSummary.FileCount, Additions: mr.DiffStatsSummary.Additions, Deletions: mr.DiffStatsSummary.Deletions},
		IsAuthor:           isAuthor,
		IsReviewer:         isReviewer,
		MyReviewState:      myState,
		OverallReviewState: overall,
	}
}
