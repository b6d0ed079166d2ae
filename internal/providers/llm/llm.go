package llm

import "context"

// Provider produces structured JSON summaries and answers. All methods
// return the decoded JSON object the model emitted.
type Provider interface {
	// SummarizeChunk summarizes one transcript chunk into
	// {agenda, decisions, action_items, issues, key_quotes, timeline}.
	SummarizeChunk(ctx context.Context, chunk string) (map[string]any, error)
	// ReduceSummaries merges partial chunk summaries into the final
	// {work_summary, timeline} document.
	ReduceSummaries(ctx context.Context, partials []map[string]any) (map[string]any, error)
	// Answer answers a question from transcript context, returning
	// {answer, citations}.
	Answer(ctx context.Context, question, context string) (map[string]any, error)
	Close() error
}

const mapPrompt = "You are summarizing a meeting transcript chunk. " +
	"Return JSON with keys: agenda, decisions, action_items, issues, key_quotes, timeline. " +
	"key_quotes must include start_ms, end_ms, text. " +
	"timeline is list of {start_ms, end_ms, summary}."

const reducePrompt = "You are merging meeting summary chunks. " +
	"Return final JSON with keys: work_summary and timeline. " +
	"work_summary keys: agenda, decisions, action_items, issues, key_quotes. " +
	"timeline is list of {start_ms, end_ms, summary}."

const answerPrompt = "You answer questions about meeting transcripts. " +
	"Use ONLY the provided context. Return JSON with keys: answer, citations. " +
	"citations is list of {segment_id, start_ms, end_ms, text}."
