// Command ome runs the off-chain matching engine: an HTTP/WebSocket
// server in front of an in-memory multi-market registry, with dumpfile
// persistence and optional settlement dispatch and markets discovery.
// Wiring style adapted from the teacher's cmd/node/main.go (config load
// -> logger -> services -> signal.NotifyContext shutdown).
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tracer-protocol/ome/params"
	"github.com/tracer-protocol/ome/pkg/api"
	"github.com/tracer-protocol/ome/pkg/core/book"
	"github.com/tracer-protocol/ome/pkg/core/registry"
	"github.com/tracer-protocol/ome/pkg/core/types"
	"github.com/tracer-protocol/ome/pkg/discovery"
	"github.com/tracer-protocol/ome/pkg/obslog"
	"github.com/tracer-protocol/ome/pkg/persist"
	"github.com/tracer-protocol/ome/pkg/settlement"
)

func main() {
	cfg := params.LoadFromEnv("")

	logger, err := obslog.NewWithFile(cfg.LogFilePath)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()
	log.Infow("logger_initialized", "log_file", cfg.LogFilePath)

	reg := registry.New()

	store, err := persist.Open(cfg.DumpfilePath)
	if err != nil {
		log.Fatalw("dumpfile_open_failed", "err", err)
	}
	defer store.Close()

	if persist.Exists(cfg.DumpfilePath) {
		if err := store.Restore(reg); err != nil {
			log.Errorw("dumpfile_restore_failed", "err", err)
		} else {
			log.Infow("dumpfile_restored", "markets", reg.Count())
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.KnownMarketsURL != "" {
		discoverMarkets(ctx, cfg, reg, logger)
	}

	var sink api.FillSink
	if cfg.ExecutionerURL != "" {
		sink = settlement.New(cfg.ExecutionerURL, logger)
		log.Infow("settlement_dispatch_enabled", "url", cfg.ExecutionerURL)
	} else {
		log.Info("settlement_dispatch_disabled")
	}

	server := api.NewServer(reg, logger, sink)
	server.Run()

	addr := cfg.ListenAddress + ":" + strconv.Itoa(int(cfg.ListenPort))
	httpServer := &http.Server{Addr: addr, Handler: server.Handler()}

	go func() {
		log.Infow("api_server_starting", "addr", addr, "tls", !cfg.ForceNoTLS)
		var err error
		if cfg.ForceNoTLS {
			err = httpServer.ListenAndServe()
		} else {
			err = httpServer.ListenAndServeTLS(cfg.CertificatePath, cfg.PrivateKeyPath)
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatalw("api_server_failed", "err", err)
		}
	}()

	dumpTicker := time.NewTicker(cfg.DumpInterval)
	defer dumpTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting_down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
			if err := store.Save(reg); err != nil {
				log.Errorw("dumpfile_save_failed", "err", err)
			}
			return

		case <-dumpTicker.C:
			if err := store.Save(reg); err != nil {
				log.Errorw("dumpfile_save_failed", "err", err)
			}
		}
	}
}

// discoverMarkets seeds the registry with every market an upstream
// registrar knows about, skipping markets already restored from the
// dumpfile, and seeds each new book with the upstream's external
// snapshot so trading can continue from where the external venue left
// off (spec.md's data model plus original_source/src/args.rs's
// known_markets_url/external_book_url flags).
func discoverMarkets(ctx context.Context, cfg params.Config, reg *registry.Registry, logger *zap.Logger) {
	log := logger.Sugar()
	client := discovery.New(cfg.KnownMarketsURL, cfg.ExternalBookURL)

	markets, err := client.KnownMarkets(ctx)
	if err != nil {
		log.Warnw("known_markets_fetch_failed", "err", err)
		return
	}
	log.Infow("known_markets_fetched", "count", len(markets))

	for _, m := range markets {
		if _, ok := reg.Book(m); ok {
			continue // already restored from the dumpfile
		}

		b := book.New(m)
		eb, err := client.ExternalSnapshot(ctx, m)
		if err != nil {
			log.Warnw("external_snapshot_fetch_failed", "market", types.FormatAddress(m), "err", err)
		} else if rebuilt, err := book.FromExternalBook(eb); err != nil {
			log.Warnw("external_snapshot_decode_failed", "market", types.FormatAddress(m), "err", err)
		} else {
			b = rebuilt
		}

		if err := reg.AddBook(b); err != nil {
			log.Warnw("discovered_book_add_failed", "market", types.FormatAddress(m), "err", err)
		}
	}
}
