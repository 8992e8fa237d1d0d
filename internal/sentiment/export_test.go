package sentiment

// Exports for testing.

var (
	ParseScore       = parseScore
	ClassifyError    = classifyError
	IsRetryableError = isRetryableError
)

// ChatCompleter mirrors the unexported interface for mocks.
type ChatCompleter = chatCompleter

// NewOpenAIScorerWithClient builds a scorer around any chat completer.
func NewOpenAIScorerWithClient(client ChatCompleter, opts ...Option) *OpenAIScorer {
	return newOpenAIScorer(client, opts...)
}
