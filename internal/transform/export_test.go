package transform

// Exports for testing.

var (
	LikeCount     = likeCount
	KeywordString = keywordString
	ParseTime     = parseTime
)
