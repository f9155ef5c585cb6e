package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/small-frappuccino/tildebot/pkg/config"
	"github.com/small-frappuccino/tildebot/pkg/discord/commands"
	"github.com/small-frappuccino/tildebot/pkg/discord/commands/core"
	"github.com/small-frappuccino/tildebot/pkg/discord/events"
	"github.com/small-frappuccino/tildebot/pkg/discord/owners"
	"github.com/small-frappuccino/tildebot/pkg/discord/session"
	"github.com/small-frappuccino/tildebot/pkg/discord/shard"
	"github.com/small-frappuccino/tildebot/pkg/errors"
	"github.com/small-frappuccino/tildebot/pkg/log"
	"github.com/small-frappuccino/tildebot/pkg/tracer"
	"github.com/small-frappuccino/tildebot/pkg/util"
)

// Options configures Run. The zero value loads ./.env and logs to stdout.
type Options struct {
	AppName string
	EnvFile string

	// LogOutput overrides the console log writer.
	LogOutput io.Writer
}

// ShardManager is the long-lived gateway client.
type ShardManager interface {
	Run(ctx context.Context) error
	ShutdownAll()
	Shards() int
}

var (
	loadEnvFile  = util.LoadEnvFile
	setupTracer  = tracer.Setup
	newAPIClient = func(token string) (owners.ApplicationFetcher, error) { return discordgo.New(session.BotToken(token)) }
	fetchOwners  = owners.Fetch
	newShardMgr  = func(token string, intents discordgo.Intent, count int, register func(*discordgo.Session)) (ShardManager, error) {
		return shard.New(token, intents, count, register)
	}
	waitForInterrupt = util.WaitForInterrupt
	registerEvents   = events.Register
	attachCommands   = func(ch *commands.CommandHandler, s *discordgo.Session) func() { return ch.Attach(s) }
)

// Run bootstraps the bot and blocks until shutdown.
//
// Fatal failures (missing env file or token, application-info fetch, client construction)
// are returned as *errors.StartupError and left for the caller to report. An error from the
// running client is logged as a run-loop error and Run returns nil.
func Run(ctx context.Context, opts Options) error {
	started := time.Now()
	appName := opts.AppName
	if appName == "" {
		appName = Name
	}

	if err := loadEnvFile(opts.EnvFile); err != nil {
		return errors.Config("load env file", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Config("parse configuration", err)
	}

	// Logger first so subsequent steps can log meaningfully
	if err := log.SetupLogger(log.Config{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Output:     opts.LogOutput,
	}); err != nil {
		return errors.Config("configure logger", err)
	}
	defer log.Sync()

	shutdownTracer, err := setupTracer(ctx, appName, cfg.OTelEndpoint)
	if err != nil {
		log.ApplicationLogger().Warn("Tracing disabled", "error", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			log.ApplicationLogger().Warn("Failed to flush traces", "error", err)
		}
	}()

	log.ApplicationLogger().Info(fmt.Sprintf("🚀 Starting %s...", appName), "version", Version)

	// Token must be present before any network call
	if cfg.Token == "" {
		err := fmt.Errorf("expected a token in the environment: %s not set in environment or env file", config.TokenEnv)
		return errors.Config("load token", err)
	}

	log.DiscordLogger().Info("🔑 Fetching application info...")
	api, err := newAPIClient(cfg.Token)
	if err != nil {
		return errors.Startup("create http client", err)
	}
	ownerSet, application, err := fetchOwners(ctx, api)
	if err != nil {
		return errors.Startup("fetch application info", err)
	}
	log.DiscordLogger().Info("Application info loaded",
		"application_id", applicationID(application),
		"owners", ownerSet.IDs(),
	)

	commandHandler, err := commands.NewCommandHandler(core.Configuration{
		Prefix:    cfg.Prefix,
		Owners:    ownerSet,
		RateLimit: cfg.CommandRate,
		Burst:     cfg.CommandBurst,
	})
	if err != nil {
		return errors.Startup("configure commands", err)
	}

	eventHandler := events.Handler{}
	manager, err := newShardMgr(cfg.Token, session.DefaultIntents, cfg.Shards, func(s *discordgo.Session) {
		registerEvents(s, eventHandler)
		attachCommands(commandHandler, s)
	})
	if err != nil {
		return errors.Startup("create client", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		waitForInterrupt(runCtx)
		log.ApplicationLogger().Info(fmt.Sprintf("🛑 Stopping %s...", appName))
		manager.ShutdownAll()
	}()

	log.ApplicationLogger().Info(fmt.Sprintf("🎯 %s initialized in %s", appName, time.Since(started).Round(time.Millisecond)),
		"shards", manager.Shards())
	log.ApplicationLogger().Info(fmt.Sprintf("🤖 %s running. Press Ctrl+C to stop...", appName))

	if err := manager.Run(runCtx); err != nil {
		if stderrors.Is(err, shard.ErrShutdown) {
			log.ApplicationLogger().Info("Shutdown requested before all shards connected")
		} else {
			log.ApplicationLogger().Error("Client error", "error", errors.RunLoop("run client", err))
		}
	}

	cancel()
	wg.Wait()
	log.ApplicationLogger().Info(fmt.Sprintf("%s stopped", appName))
	return nil
}

func applicationID(app *discordgo.Application) string {
	if app == nil {
		return ""
	}
	return app.ID
}
