package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/dashgit/dashgit/internal/domain"
)

// GitHubGateway fetches open pull requests involving a user from the
// GitHub GraphQL API. The REST client is only used to resolve the
// authenticated viewer's login when no username is configured.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	username      string
	logger        *zap.Logger
}

type actorNode struct {
	Login     string
	AvatarURL string `graphql:"avatarUrl"`
}

type reviewNode struct {
	State       string
	SubmittedAt githubv4.DateTime
	Author      actorNode
}

type pullRequestNode struct {
	Number     int
	Title      string
	URL        string `graphql:"url"`
	UpdatedAt  githubv4.DateTime
	Repository struct {
		NameWithOwner string
	}
	Author             actorNode
	ReviewDecision     string
	Additions          int
	Deletions          int
	ChangedFiles       int
	TotalCommentsCount int
	ReviewRequests     struct {
		Nodes []struct {
			RequestedReviewer struct {
				User struct {
					Login     string
					Name      string
					AvatarURL string `graphql:"avatarUrl"`
				} `graphql:"... on User"`
			}
		}
	} `graphql:"reviewRequests(first: 30)"`
	Reviews struct {
		Nodes []reviewNode
	} `graphql:"reviews(first: 100)"`
	Comments struct {
		Nodes []struct {
			Author actorNode
		}
	} `graphql:"comments(first: 100)"`
	Commits struct {
		Nodes []struct {
			Commit struct {
				StatusCheckRollup struct {
					State string
				}
			}
		}
	} `graphql:"commits(last: 1)"`
}

// searchPullRequestsQuery selects everything the unified entity needs in
// one search query. First page only.
type searchPullRequestsQuery struct {
	Search struct {
		Nodes []struct {
			Typename    string          `graphql:"__typename"`
			PullRequest pullRequestNode `graphql:"... on PullRequest"`
		}
	} `graphql:"search(query: $query, type: ISSUE, first: 50)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token, username string, logger *zap.Logger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		username:      username,
		logger:        logger,
	}, nil
}

func (g *GitHubGateway) Source() domain.Source { return domain.SourceGitHub }

// FetchPullRequests returns the open pull requests where the user is
// involved (author, assignee, reviewer, or commenter).
func (g *GitHubGateway) FetchPullRequests(ctx context.Context) ([]domain.PullRequest, error) {
	username := g.username
	if username == "" {
		viewer, _, err := g.restClient.Users.Get(ctx, "")
		if err != nil {
			return nil, &FetchError{Platform: domain.SourceGitHub, Err: fmt.Errorf("failed to resolve viewer login: %w", err)}
		}
		username = viewer.GetLogin()
		g.logger.Debug("resolved viewer login", zap.String("login", username))
	}

	variables := map[string]interface{}{
		"query": githubv4.String(fmt.Sprintf("is:pr is:open involves:%s", username)),
	}
	var q searchPullRequestsQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, &FetchError{Platform: domain.SourceGitHub, Err: fmt.Errorf("failed to execute GraphQL search: %w", err)}
	}

	prs := make([]domain.PullRequest, 0, len(q.Search.Nodes))
	for _, node := range q.Search.Nodes {
		if node.Typename != "PullRequest" {
			continue
		}
		prs = append(prs, mapGithubPullRequest(node.PullRequest, username))
	}
	g.logger.Debug("fetched GitHub pull requests", zap.Int("count", len(prs)))
	return prs, nil
}

// reviewSignals is the replayed review history of one pull request,
// reduced to one latest binding state per author.
type reviewSignals struct {
	// binding holds each author's latest approved/changes_requested
	// verdict; a dismissal removes the entry.
	binding map[string]domain.ReviewState
	// active marks authors with any review or comment activity at all.
	active map[string]bool
	// requested marks the currently-requested reviewers.
	requested map[string]bool
}

// replaySignals replays review submissions in submitted-at order.
// Approvals and change requests overwrite the author's binding state,
// dismissals clear it, and plain comments only mark activity.
func replaySignals(requestedLogins []string, reviews []reviewNode, commenterLogins []string) *reviewSignals {
	s := &reviewSignals{
		binding:   make(map[string]domain.ReviewState),
		active:    make(map[string]bool),
		requested: make(map[string]bool),
	}
	for _, login := range requestedLogins {
		if login != "" {
			s.requested[strings.ToLower(login)] = true
		}
	}

	ordered := make([]reviewNode, len(reviews))
	copy(ordered, reviews)
	// The API returns reviews in submission order already; sort anyway so
	// the replay never depends on that.
	sortReviewsBySubmittedAt(ordered)

	for _, review := range ordered {
		login := strings.ToLower(review.Author.Login)
		if login == "" {
			continue
		}
		s.active[login] = true
		switch review.State {
		case "APPROVED":
			s.binding[login] = domain.ReviewApproved
		case "CHANGES_REQUESTED":
			s.binding[login] = domain.ReviewChangesRequested
		case "DISMISSED":
			delete(s.binding, login)
		}
	}
	for _, login := range commenterLogins {
		if login != "" {
			s.active[strings.ToLower(login)] = true
		}
	}
	return s
}

func sortReviewsBySubmittedAt(reviews []reviewNode) {
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].SubmittedAt.Before(reviews[j].SubmittedAt.Time)
	})
}

// resolveReviewerStatus resolves one reviewer's final status. A reviewer
// who requested changes but has since been re-requested counts as
// pending: a fresh review was asked for.
func resolveReviewerStatus(login string, s *reviewSignals) domain.ReviewState {
	switch {
	case s.binding[login] == domain.ReviewApproved:
		return domain.ReviewApproved
	case s.binding[login] == domain.ReviewChangesRequested:
		if s.requested[login] {
			return domain.ReviewPending
		}
		return domain.ReviewChangesRequested
	case s.requested[login]:
		return domain.ReviewPending
	case s.active[login]:
		return domain.ReviewCommented
	default:
		return domain.ReviewPending
	}
}

// resolveMyReviewState is resolveReviewerStatus with one difference: a
// current review request outranks any stale binding state, approvals
// included.
func resolveMyReviewState(login string, s *reviewSignals) domain.ReviewState {
	if s.requested[login] {
		return domain.ReviewPending
	}
	return resolveReviewerStatus(login, s)
}

// resolveOverallState trusts the platform's own review decision when it
// is conclusive. Approved is never inferred from approver counts; the
// platform may require signals this query cannot see.
func resolveOverallState(decision string, s *reviewSignals) domain.ReviewState {
	switch decision {
	case "APPROVED":
		return domain.ReviewApproved
	case "CHANGES_REQUESTED":
		return domain.ReviewChangesRequested
	}
	for _, state := range s.binding {
		if state == domain.ReviewChangesRequested {
			return domain.ReviewChangesRequested
		}
	}
	return domain.ReviewPending
}

func mapGithubPipelineStatus(state string) domain.PipelineStatus {
	switch {
	case state == "":
		return domain.PipelineUnknown
	case state == "SUCCESS":
		return domain.PipelineSuccess
	case state == "FAILURE" || state == "ERROR":
		return domain.PipelineFailed
	case state == "NEUTRAL" || strings.Contains(strings.ToUpper(state), "WARN"):
		return domain.PipelineWarning
	default:
		return domain.PipelinePending
	}
}

func actorUser(a actorNode) domain.User {
	return domain.User{Name: a.Login, Username: a.Login, AvatarURL: a.AvatarURL}
}

func mapGithubPullRequest(pr pullRequestNode, username string) domain.PullRequest {
	me := strings.ToLower(username)
	authorLogin := strings.ToLower(pr.Author.Login)

	requestedLogins := make([]string, 0, len(pr.ReviewRequests.Nodes))
	for _, rr := range pr.ReviewRequests.Nodes {
		requestedLogins = append(requestedLogins, rr.RequestedReviewer.User.Login)
	}
	commenterLogins := make([]string, 0, len(pr.Comments.Nodes))
	for _, comment := range pr.Comments.Nodes {
		commenterLogins = append(commenterLogins, comment.Author.Login)
	}
	signals := replaySignals(requestedLogins, pr.Reviews.Nodes, commenterLogins)

	// The reviewer set is everyone ever requested, ever reviewing, or
	// ever commenting, minus the author, deduplicated by login.
	seen := make(map[string]bool)
	reviewers := []domain.Reviewer{}
	addReviewer := func(u domain.User) {
		key := strings.ToLower(u.Username)
		if u.Username == "" || key == authorLogin || seen[key] {
			return
		}
		seen[key] = true
		reviewers = append(reviewers, domain.Reviewer{User: u, Status: resolveReviewerStatus(key, signals)})
	}
	for _, rr := range pr.ReviewRequests.Nodes {
		u := rr.RequestedReviewer.User
		name := u.Name
		if name == "" {
			name = u.Login
		}
		addReviewer(domain.User{Name: name, Username: u.Login, AvatarURL: u.AvatarURL})
	}
	for _, review := range pr.Reviews.Nodes {
		addReviewer(actorUser(review.Author))
	}
	for _, comment := range pr.Comments.Nodes {
		addReviewer(actorUser(comment.Author))
	}

	isAuthor := me != "" && me == authorLogin
	isReviewer := seen[me]
	myState := domain.ReviewPending
	if isReviewer {
		myState = resolveMyReviewState(me, signals)
	}

	given := 0
	for _, state := range signals.binding {
		if state == domain.ReviewApproved {
			given++
		}
	}

	rollup := ""
	if len(pr.Commits.Nodes) > 0 {
		rollup = pr.Commits.Nodes[0].Commit.StatusCheckRollup.State
	}

	return domain.PullRequest{
		ID:             strconv.Itoa(pr.Number),
		UniqueKey:      fmt.Sprintf("%s#%d", pr.Repository.NameWithOwner, pr.Number),
		Source:         domain.SourceGitHub,
		Title:          pr.Title,
		URL:            pr.URL,
		RepoName:       pr.Repository.NameWithOwner,
		UpdatedAt:      pr.UpdatedAt.Time,
		Author:         actorUser(pr.Author),
		Reviewers:      reviewers,
		PipelineStatus: mapGithubPipelineStatus(rollup),
		// Comment resolution is not exposed in this query shape, so
		// resolved stays 0 and total is the raw comment counter.
		CommentStats: domain.CommentStats{Resolved: 0, Total: pr.TotalCommentsCount},
		// GitHub exposes no required-approvals threshold here; 1 is a
		// known approximation.
		Approvals:          domain.Approvals{Given: given, Required: 1},
		Changes:            domain.Changes{Files: pr.ChangedFiles, Additions: pr.Additions, Deletions: pr.Deletions},
		IsAuthor:           isAuthor,
		IsReviewer:         isReviewer,
		MyReviewState:      myState,
		OverallReviewState: resolveOverallState(pr.ReviewDecision, signals),
	}
}
