package feeder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ChatClient is an LLM completion capability consumed by the semantic
// arbiter.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const arbiterSystemPrompt = `You deduplicate news articles. You receive a JSON object with a batch of
candidate articles and a list of recently stored titles. Two articles are
duplicates when they cover the same real-world story, even with different
wording. Respond with JSON only, no prose, in the form:
{"dropped":[{"index":<int>,"reason":"<short reason naming the duplicate>"}]}
Articles not listed in "dropped" are kept.`

// SemanticArbiter is the drop-in DuplicateArbiter alternative to the
// three-detector funnel: a single LLM call judges the whole batch against
// itself and the recent corpus. Like the funnel it never writes state, and
// any infrastructure or parse failure keeps the whole batch.
type SemanticArbiter struct {
	client     ChatClient
	titles     RecentTitleStore
	titleLimit int
	logger     zerolog.Logger
}

var _ DuplicateArbiter = (*SemanticArbiter)(nil)

func NewSemanticArbiter(client ChatClient, titles RecentTitleStore, titleLimit int, logger zerolog.Logger) *SemanticArbiter {
	if titleLimit <= 0 {
		titleLimit = 300
	}
	return &SemanticArbiter{
		client:     client,
		titles:     titles,
		titleLimit: titleLimit,
		logger:     logger,
	}
}

type arbiterArticle struct {
	Index       int    `json:"index"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Domain      string `json:"domain,omitempty"`
}

type arbiterRequest struct {
	Articles     []arbiterArticle `json:"articles"`
	RecentTitles []string         `json:"recent_titles"`
}

type arbiterResponse struct {
	Dropped []struct {
		Index  int    `json:"index"`
		Reason string `json:"reason"`
	} `json:"dropped"`
}

func (a *SemanticArbiter) Evaluate(ctx context.Context, batch []*Article) (ArbiterDecision, error) {
	if len(batch) == 0 {
		return ArbiterDecision{}, nil
	}

	recentTitles, err := a.titles.ListRecent(ctx, a.titleLimit)
	if err != nil {
		a.logger.Warn().Err(err).Msg("recent title store unavailable; arbiter judging batch in isolation")
		recentTitles = nil
	}

	request := arbiterRequest{
		Articles:     make([]arbiterArticle, 0, len(batch)),
		RecentTitles: recentTitles,
	}
	for i, article := range batch {
		request.Articles = append(request.Articles, arbiterArticle{
			Index:       i,
			Title:       article.Title,
			Description: truncate(article.Description, 400),
			Domain:      article.SourceDomain,
		})
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return ArbiterDecision{}, fmt.Errorf("marshal arbiter request: %w", err)
	}

	raw, err := a.client.Complete(ctx, arbiterSystemPrompt, string(payload))
	if err != nil {
		a.logger.Warn().Err(err).Msg("arbiter completion failed; keeping whole batch")
		return ArbiterDecision{Kept: batch}, nil
	}

	response, err := parseArbiterResponse(raw)
	if err != nil {
		a.logger.Warn().Err(err).Msg("arbiter response unparseable; keeping whole batch")
		return ArbiterDecision{Kept: batch}, nil
	}

	droppedByIndex := make(map[int]string, len(response.Dropped))
	for _, d := range response.Dropped {
		if d.Index < 0 || d.Index >= len(batch) {
			continue
		}
		reason := strings.TrimSpace(d.Reason)
		if reason == "" {
			reason = "judged duplicate by arbiter"
		}
		droppedByIndex[d.Index] = reason
	}

	var decision ArbiterDecision
	for i, article := range batch {
		if reason, ok := droppedByIndex[i]; ok {
			decision.Dropped = append(decision.Dropped, DropRecord{
				Article: article,
				Stage:   StageArbiter,
				Reason:  reason,
			})
			continue
		}
		decision.Kept = append(decision.Kept, article)
	}
	return decision, nil
}

func parseArbiterResponse(raw string) (arbiterResponse, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var response arbiterResponse
	if err := json.Unmarshal([]byte(cleaned), &response); err != nil {
		return arbiterResponse{}, fmt.Errorf("decode arbiter response: %w", err)
	}
	return response, nil
}
