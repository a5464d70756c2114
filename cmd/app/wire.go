//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/snow-agent/internal/bootstrap"
	"github.com/yanqian/snow-agent/internal/domain/chat"
	"github.com/yanqian/snow-agent/internal/infra/config"
	httpiface "github.com/yanqian/snow-agent/internal/interface/http"
	"github.com/yanqian/snow-agent/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideChatConfig,
		provideLLMComponents,
		provideEmbedder,
		provideGenerator,
		provideRetriever,
		provideInteractionLog,
		provideDispatcher,
		provideTrendingStore,
		provideTokenCounter,
		chat.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
