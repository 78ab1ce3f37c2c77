package report

import (
	"context"
	"fmt"

	"github.com/PerterPon/ff/internal/service/engine"
	"github.com/PerterPon/ff/internal/service/llm"
)

// Annotator 让大模型对回测结果写一段点评
type Annotator struct {
	svc llm.Service
}

func NewAnnotator(svc llm.Service) *Annotator {
	return &Annotator{
		svc: svc,
	}
}

const annotatePrompt = `你是一个量化交易分析师, 下面是一次加密货币策略回测的统计结果。
请用中文给出一段简短的点评, 包括收益和回撤是否健康, 手续费占比是否过高, 以及改进建议。

%s`

func (a *Annotator) Annotate(ctx context.Context, result *engine.Result) (string, error) {
	answer, err := a.svc.AskOnce(ctx, llm.Question{
		Content: fmt.Sprintf(annotatePrompt, Summary(result)),
	})
	if err != nil {
		return "", fmt.Errorf("annotate backtest result: %w", err)
	}
	return answer.Content, nil
}
