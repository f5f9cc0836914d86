// Package analyst answers executive questions over normalized board
// snapshots by injecting the dataset into a Claude context window.
package analyst

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/skylark-bi/boardpulse/internal/model"
	"github.com/skylark-bi/boardpulse/internal/schema"
	"github.com/skylark-bi/boardpulse/pkg/anthropic"
)

const systemPrompt = `You are a BI analyst for a drone-operations company.
Answer questions based ONLY on the provided data context. Values shown
as "—" mean the data is unavailable; never treat them as zero.
If asked for a leadership update, summarize:
1. Revenue (billed vs collected)
2. Pipeline health (high-probability deals)
3. Risks (stuck projects)`

// Answer is the analyst's response to one question.
type Answer struct {
	Text  string
	Model string
	Usage anthropic.TokenUsage
}

// Analyst turns questions plus snapshots into model answers.
type Analyst struct {
	client    anthropic.Client
	roles     *schema.RoleSet
	model     string
	maxTokens int64
}

// New creates an Analyst.
func New(client anthropic.Client, roles *schema.RoleSet, modelID string, maxTokens int64) *Analyst {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &Analyst{
		client:    client,
		roles:     roles,
		model:     modelID,
		maxTokens: maxTokens,
	}
}

// Ask answers a question against the given snapshots.
func (a *Analyst) Ask(ctx context.Context, question string, snapshots []model.Snapshot) (*Answer, error) {
	if question == "" {
		return nil, eris.New("analyst: empty question")
	}
	if len(snapshots) == 0 {
		return nil, eris.New("analyst: no snapshots to analyze")
	}

	dataContext := BuildContext(snapshots, a.roles)
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    systemPrompt,
		Messages: []anthropic.Message{
			{
				Role:    "user",
				Content: fmt.Sprintf("Data Context:\n%s\nQuestion: %s", dataContext, question),
			},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "analyst: ask")
	}

	resp.Usage.LogCost(resp.Model, "ask")
	zap.L().Info("question answered",
		zap.String("model", resp.Model),
		zap.Int("boards", len(snapshots)),
		zap.String("stop_reason", resp.StopReason),
	)

	return &Answer{
		Text:  resp.Text,
		Model: resp.Model,
		Usage: resp.Usage,
	}, nil
}
