package main

import (
	"time"

	"github.com/jonathan/course-designer/internal/agents"
	"github.com/jonathan/course-designer/internal/config"
	"github.com/jonathan/course-designer/internal/fetch"
	"github.com/jonathan/course-designer/internal/llm"
	"github.com/jonathan/course-designer/internal/logger"
	"github.com/jonathan/course-designer/internal/workflow"
)

const browserTimeout = 30 * time.Second

// newEngine wires the LLM agents and the reference document fetcher into a
// workflow engine. store may be nil to run without persistence.
func newEngine(cfg config.Config, store workflow.Store, onProgress workflow.ProgressCallback, log *logger.Logger) *workflow.Engine {
	llmCfg := llm.DefaultConfig()
	if cfg.Model != "" {
		llmCfg = llmCfg.WithAllModels(cfg.Model)
	}
	factory := agents.NewLLMFactory(llmCfg, agents.Temperatures{
		Analysis:  cfg.AnalysisTemperature,
		Sequencer: cfg.SequencerTemperature,
	}, log)

	var render fetch.RenderFunc
	if cfg.UseBrowser {
		render = fetch.ChromeRenderer(browserTimeout)
	}
	docs := fetch.NewFetcher(nil, render, log)

	return workflow.NewEngine(store, factory, docs, workflow.Config{
		APIKey:     cfg.APIKey,
		OutputDir:  cfg.OutputDir,
		OnProgress: onProgress,
	}, log)
}
