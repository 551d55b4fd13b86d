package summarizer

import "context"

// Summarizer turns finished transcripts into DOCX summaries.
type Summarizer interface {
	SummarizeTree(ctx context.Context, root string) error
}
