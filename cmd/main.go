package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitcoin-node-sim/internal/config"
	"bitcoin-node-sim/internal/console"
	"bitcoin-node-sim/internal/contacts"
	"bitcoin-node-sim/internal/emitters"
	"bitcoin-node-sim/internal/events"
	"bitcoin-node-sim/internal/health"
	"bitcoin-node-sim/internal/interfaces"
	"bitcoin-node-sim/internal/ledger"
	"bitcoin-node-sim/internal/logger"
	"bitcoin-node-sim/internal/models"
	"bitcoin-node-sim/internal/node"
	"bitcoin-node-sim/internal/rpc"
	"bitcoin-node-sim/internal/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().Error().Interface("panic", r).Msg("Application panicked, recovering")
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", "")
		logger.GetLogger().Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.LogLevel, cfg.LogFile)
	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n := node.New(ledger.NewMemoryStore(), node.Options{
		Logger:          log,
		Latency:         cfg.Node.Latency,
		StartupLogDelay: cfg.Node.StartupLogDelay,
		Stopped:         !cfg.Node.AutoStart,
		Dial: func(rc models.RPCConfig) interfaces.RPCProxy {
			return rpc.NewClient(rc, cfg.RPC.RateLimit, cfg.RPC.Timeout, log)
		},
	})
	defer n.Close()

	if cfg.RPC.URL != "" {
		args := []string{cfg.RPC.URL, cfg.RPC.User, cfg.RPC.Pass}
		if _, err := n.Execute(ctx, "connect", args, cfg.Node.Network, node.WalletContext{}); err != nil {
			log.Warn().Err(err).Str("url", cfg.RPC.URL).Msg("Real node unavailable, staying in simulation mode")
		}
	}

	var emitter interfaces.EventEmitter = &events.LogEmitter{}
	if cfg.Kafka.BrokerAddress != "" {
		emitter = &events.LogEmitter{WrappedEmitter: emitters.NewKafkaEmitter(cfg.Kafka.BrokerAddress, cfg.Kafka.Topic)}
		log.Info().Str("broker", cfg.Kafka.BrokerAddress).Str("topic", cfg.Kafka.Topic).Msg("Emitting ledger events to Kafka")
	}
	defer func() {
		if err := emitter.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close event emitter")
		}
	}()

	go func() {
		if err := events.NewRelay(n, emitter, log).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Event relay stopped")
		}
	}()

	var book server.ContactBook
	if cfg.Contacts.DBPath != "" {
		b, err := contacts.Open(cfg.Contacts.DBPath)
		if err != nil {
			log.Error().Err(err).Msg("Contact book unavailable")
		} else {
			defer b.Close()
			book = b
		}
	}

	var srv *http.Server
	if cfg.HTTP.ListenAddr != "" {
		handler := server.NewHandler(n, book, cfg.Node.Network, cfg.Node.WalletAddress, log)
		srv = &http.Server{
			Addr:              cfg.HTTP.ListenAddr,
			Handler:           server.NewRouter(handler),
			ReadHeaderTimeout: 10 * time.Second,
		}
		health.RegisterNode("simulated", n)
		health.SetReady(true)

		go func() {
			log.Info().Str("addr", cfg.HTTP.ListenAddr).Msg("JSON-RPC server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("JSON-RPC server failed")
				stop()
			}
		}()
	}

	if cfg.Console.Enabled {
		c := console.New(n, cfg.Node.Network, cfg.Node.WalletAddress, os.Stdin, os.Stdout, log)
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Console stopped")
		}
		stop()
	} else {
		<-ctx.Done()
	}

	log.Info().Msg("Shutdown signal received, exiting...")
	health.SetReady(false)
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("JSON-RPC server shutdown failed")
		}
	}
}
