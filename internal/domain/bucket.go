package domain

// Bucket is one of the seven actionable status categories the dashboard
// groups pull requests into. The constants below are ordered by
// classification priority; the first matching bucket wins.
type Bucket string

const (
	BucketReturnedToYou       Bucket = "Returned to you"
	BucketApprovedByOthers    Bucket = "Approved by others"
	BucketWaitingForApprovals Bucket = "Waiting for approvals"
	BucketYourMergeRequests   Bucket = "Your merge requests"
	BucketApprovedByYou       Bucket = "Approved by you"
	BucketWaitingForAuthor    Bucket = "Waiting for the author"
	BucketReviewRequested     Bucket = "Review requested"
)

// Buckets lists all buckets in classification priority order.
func Buckets() []Bucket {
	return []Bucket{
		BucketReturnedToYou,
		BucketApprovedByOthers,
		BucketWaitingForApprovals,
		BucketYourMergeRequests,
		BucketApprovedByYou,
		BucketWaitingForAuthor,
		BucketReviewRequested,
	}
}
