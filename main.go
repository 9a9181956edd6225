package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/crm-lead-qualifier/agent/agents/orchestrator"
	"github.com/tanpawarit/crm-lead-qualifier/agent/agents/qualifier"
	"github.com/tanpawarit/crm-lead-qualifier/agent/api"
	contractx "github.com/tanpawarit/crm-lead-qualifier/agent/contract"
	"github.com/tanpawarit/crm-lead-qualifier/agent/lead"
	llmx "github.com/tanpawarit/crm-lead-qualifier/agent/llm"
	statex "github.com/tanpawarit/crm-lead-qualifier/agent/state"
	toolx "github.com/tanpawarit/crm-lead-qualifier/agent/tool"
	configx "github.com/tanpawarit/crm-lead-qualifier/pkg/config"
	_ "github.com/tanpawarit/crm-lead-qualifier/pkg/logger/autoload"
	openrouterx "github.com/tanpawarit/crm-lead-qualifier/pkg/openrouter"
	qstashx "github.com/tanpawarit/crm-lead-qualifier/pkg/qstash"
)

type AppConfig struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8000"`
	VerifyModel bool   `envconfig:"VERIFY_MODEL" default:"false"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("lead qualifier exited")
	}
}

func run(ctx context.Context) error {
	appCfg := configx.MustNew[AppConfig]("")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	storeCfg := configx.MustNew[lead.Config]("STORE")
	sessionCfg := configx.MustNew[orchestrator.Config]("SESSION")
	redisCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
	qstashCfg := configx.MustNew[qstashx.Config]("QSTASH")

	modelCfg := llmCfg.OpenRouterFor(contractx.AgentTypeQualifier)
	if appCfg.VerifyModel {
		client := openrouterx.NewClient(modelCfg)
		if err := openrouterx.VerifyModel(ctx, client, modelCfg.Model); err != nil {
			return err
		}
		log.Info().Str("model", modelCfg.Model).Msg("model verified")
	}

	store, err := lead.Open(ctx, *storeCfg)
	if err != nil {
		return fmt.Errorf("open lead store: %w", err)
	}
	defer store.Close()

	var toolOpts []toolx.Option
	if qstashCfg.Enabled() {
		client, err := qstashx.NewClient(*qstashCfg)
		if err != nil {
			return fmt.Errorf("qstash: %w", err)
		}
		toolOpts = append(toolOpts, toolx.WithEventPublisher(qstashPublisher{client: client}))
		log.Info().Str("destination", qstashCfg.Destination).Msg("lead events enabled")
	}

	executor, err := toolx.NewExecutor(store, toolOpts...)
	if err != nil {
		return err
	}

	runtime, err := qualifier.NewFromConfig(ctx, *llmCfg, executor, qualifier.WithMaxTurns(sessionCfg.MaxTurns))
	if err != nil {
		return err
	}

	var sessionStore statex.Store
	if redisCfg.Enabled() {
		redisStore, err := statex.NewUpstashRedisStore(*redisCfg)
		if err != nil {
			return fmt.Errorf("upstash redis: %w", err)
		}
		sessionStore = redisStore
		log.Info().Dur("ttl", redisCfg.TTL).Msg("session transcripts persisted to upstash redis")
	} else if sessionCfg.MaxSessions > 0 {
		sessionStore = statex.NewMemoryStore()
		log.Info().Msg("evicted session transcripts kept in memory")
	}

	orch, err := orchestrator.New(runtime, sessionStore, *sessionCfg)
	if err != nil {
		return err
	}

	server, err := api.New(appCfg.HTTPAddr, orch)
	if err != nil {
		return err
	}

	log.Info().
		Str("agent", runtime.Name()).
		Str("model", modelCfg.Model).
		Str("store", storeCfg.Driver).
		Int("max_sessions", sessionCfg.MaxSessions).
		Msg("lead qualifier starting")
	return server.Start(ctx)
}

// qstashPublisher sends contract events to the configured QStash destination.
type qstashPublisher struct {
	client *qstashx.Client
}

func (p qstashPublisher) Publish(ctx context.Context, evt contractx.Event) error {
	_, err := p.client.Publish(ctx, evt)
	return err
}
