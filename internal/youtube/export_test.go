package youtube

// Exports for black-box tests in package youtube_test.

var (
	IsTransientFailure = isTransientFailure
	IsQuotaFailure     = isQuotaFailure
	ClassifyFailure    = classifyFailure
	ParseSearchPage    = parseSearchPage
	ParseCommentPage   = parseCommentPage
)

const (
	SearchPageSize  = searchPageSize
	CommentPageSize = commentPageSize
)
