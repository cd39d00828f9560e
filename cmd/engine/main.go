// Command engine runs the matching engine process: it pulls commands off
// the Redis ingress queue, matches them against the configured markets,
// and publishes replies, db-persistence intents, and market-data events.
// Grounded on the teacher's cmd/main.go (signal.NotifyContext + tomb-run
// pattern), generalized from a TCP accept loop to a Redis-backed ingress
// pool.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"exchangecore/internal/config"
	"exchangecore/internal/engine"
	"exchangecore/internal/money"
	"exchangecore/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional; defaults apply otherwise)")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer client.Close()
	queue := transport.NewRedis(client)

	markets := make([]engine.Market, len(cfg.Markets))
	for i, m := range cfg.Markets {
		markets[i] = engine.Market{Symbol: m.Symbol, Base: m.Base, Quote: m.Quote}
	}

	eng := engine.New(markets, cfg.PlatformCurrency, queue)
	for _, sb := range cfg.SeedBalances {
		amount, err := money.Parse(sb.Amount)
		if err != nil {
			log.Fatal().Err(err).Str("userId", sb.UserID).Msg("invalid seed balance amount")
		}
		eng.SeedBalance(sb.UserID, sb.Asset, amount)
	}

	t, ctx := tomb.WithContext(ctx)

	commands := make(chan []byte, 256)
	pool := transport.NewIngressPool(cfg.IngressWorkers, queue, commands)

	t.Go(func() error {
		return pool.Run(t)
	})
	t.Go(func() error {
		return eng.Run(t, commands)
	})

	log.Info().Str("redisAddr", cfg.RedisAddr).Int("markets", len(markets)).Msg("engine running")

	<-ctx.Done()
	t.Kill(nil)
	if err := t.Wait(); err != nil {
		log.Error().Err(err).Msg("engine stopped with error")
		os.Exit(1)
	}
}
