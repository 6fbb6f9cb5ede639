package llm

import (
	"context"
	"fmt"
	"sync"

	"novel-trans-api/internal/config"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// EinoFactory 按 provider 管理 Eino ChatModel 客户端实例。
// 同一 provider 下的多个模型共享一个客户端，具体模型名在调用时通过选项传入。
type EinoFactory struct {
	config *config.LLMConfig
	models map[string]model.BaseChatModel
	mu     sync.RWMutex
}

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg *config.Config) *EinoFactory {
	return &EinoFactory{
		config: &cfg.LLM,
		models: make(map[string]model.BaseChatModel),
	}
}

// Get 获取指定 provider 的 ChatModel
func (f *EinoFactory) Get(ctx context.Context, provider string) (model.BaseChatModel, error) {
	f.mu.RLock()
	m, ok := f.models[provider]
	f.mu.RUnlock()
	if ok {
		return m, nil
	}

	// 惰性加载
	f.mu.Lock()
	defer f.mu.Unlock()

	// 再次检查防止竞态
	if m, ok = f.models[provider]; ok {
		return m, nil
	}

	providerCfg, ok := f.config.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", provider)
	}

	// 使用 Eino 的 OpenAI 适配器
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  providerCfg.APIKey,
		BaseURL: providerCfg.BaseURL,
		Timeout: providerCfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", provider, err)
	}

	f.models[provider] = chatModel
	return chatModel, nil
}
