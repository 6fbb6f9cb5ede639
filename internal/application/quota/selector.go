package quota

import (
	"sort"

	"novel-trans-api/internal/config"
)

// 模型梯队
const (
	TierPrimary  = "primary"
	TierFallback = "fallback"
)

// Selector 按梯队与优先级挑选可用模型
// primary 梯队优先，梯队内 Priority 数字越小越优先。
type Selector struct {
	ordered []config.ModelConfig
	ledger  *Ledger
}

// NewSelector 创建模型选择器
func NewSelector(models []config.ModelConfig, ledger *Ledger) *Selector {
	ordered := append([]config.ModelConfig(nil), models...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Tier != ordered[j].Tier {
			return tierRank(ordered[i].Tier) < tierRank(ordered[j].Tier)
		}
		return ordered[i].Priority < ordered[j].Priority
	})
	return &Selector{ordered: ordered, ledger: ledger}
}

func tierRank(tier string) int {
	if tier == TierFallback {
		return 1
	}
	return 0
}

// Next 返回第一个可用且未被排除的模型。
// 没有任何模型可用时返回最后一个 UnavailableError。
func (s *Selector) Next(exclude map[string]bool) (config.ModelConfig, error) {
	var lastErr error
	for _, m := range s.ordered {
		if exclude[m.Name] {
			continue
		}
		if err := s.ledger.CanUse(m.Name); err != nil {
			lastErr = err
			continue
		}
		return m, nil
	}
	if lastErr == nil {
		lastErr = UnavailableError{Model: "", Reason: ReasonDepleted}
	}
	return config.ModelConfig{}, lastErr
}

// Candidates 返回按调度顺序排列的全部模型
func (s *Selector) Candidates() []config.ModelConfig {
	return append([]config.ModelConfig(nil), s.ordered...)
}
