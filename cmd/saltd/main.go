// saltd is the SaltyBet wagering daemon. It polls the match feed,
// predicts winners from persisted skill ratings, places wagers through
// an authenticated session, and settles ratings when matches decide.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phenomenon0/saltbet-agent/internal/config"
	"github.com/phenomenon0/saltbet-agent/pkg/feed"
	"github.com/phenomenon0/saltbet-agent/pkg/metrics"
	"github.com/phenomenon0/saltbet-agent/pkg/session"
	"github.com/phenomenon0/saltbet-agent/pkg/store"
	"github.com/phenomenon0/saltbet-agent/pkg/streaming"
	"github.com/phenomenon0/saltbet-agent/pkg/wager"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Flags override their environment counterparts.
	httpAddr     = flag.String("http", "", "HTTP server address for status API (default from SB_HTTP_ADDR)")
	dbPath       = flag.String("db", "", "SQLite database path (default from SB_DB_PATH)")
	restartDelay = flag.Duration("restart-delay", 10*time.Second, "Delay before restarting after a fatal cycle error")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("Starting SaltyBet wagering daemon")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received %s, shutting down...", sig)
		cancel()
	}()

	d, err := newDaemon(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize daemon: %v", err)
	}
	defer d.store.Close()

	go d.streamHub.Run()
	go d.startHTTP(cfg.HTTPAddr)

	// Supervision: a fatal cycle error (desynchronized session) stops
	// the cycle; betting only resumes through a fresh login on the
	// next one.
	for {
		if err := d.runCycle(ctx, cfg); err != nil {
			if ctx.Err() != nil {
				break
			}
			d.metrics.FatalErrorsTotal.Inc()
			d.streamHub.BroadcastError(err, "cycle")
			log.Printf("[CYCLE] fatal: %v; restarting in %s", err, *restartDelay)

			select {
			case <-time.After(*restartDelay):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	log.Println("Goodbye!")
}

type daemon struct {
	store     *store.Store
	gateway   *session.Client
	feed      *feed.Client
	loop      *wager.Loop
	metrics   *metrics.SaltMetrics
	streamHub *streaming.Hub
}

func newDaemon(cfg *config.Config) (*daemon, error) {
	d := &daemon{
		metrics:   metrics.NewSaltMetrics(),
		streamHub: streaming.NewHub(),
	}

	var err error
	d.store, err = store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Printf("Store opened at %s", cfg.DBPath)

	d.gateway, err = session.NewClient(cfg.Username, cfg.Password,
		session.WithIndexURL(cfg.IndexURL),
		session.WithLoginURL(cfg.LoginURL),
		session.WithBetURL(cfg.BetURL),
		session.WithRefererURL(cfg.RefererURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create session client: %w", err)
	}

	d.feed = feed.NewClient(feed.WithStateURL(cfg.StateURL))

	d.loop = wager.NewLoop(d.store, d.gateway)
	d.loop.OnBet(func(bet wager.Bet) {
		d.metrics.RecordBet(string(bet.Side), bet.Amount, bet.Retried)
		if bet.Balance.IsPositive() {
			d.metrics.Balance.Set(bet.Balance.InexactFloat64())
		}
		d.streamHub.BroadcastBet(bet)
	})
	d.loop.OnSettled(func(s wager.Settlement) {
		d.metrics.RecordSettlement(s.OutcomeLabel)
		d.streamHub.BroadcastSettlement(s)
	})

	return d, nil
}

// runCycle performs one login-to-fatal-error span: authenticate, then
// run the poller and the decision loop over a capacity-1 channel until
// one of them stops. The capacity bound is load-bearing: it keeps at
// most one event in flight so the loop never settles out of order.
func (d *daemon) runCycle(ctx context.Context, cfg *config.Config) error {
	if err := d.gateway.Login(ctx); err != nil {
		d.metrics.RecordLogin(err)
		return fmt.Errorf("login: %w", err)
	}
	d.metrics.RecordLogin(nil)
	log.Println("Logged in")

	cycleCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	poller := feed.NewPoller(d.feed, feed.WithInterval(cfg.PollInterval))
	poller.OnPoll(d.metrics.RecordPoll)
	poller.OnEvent(func(ev feed.Event) {
		d.metrics.RecordEvent(string(ev.Kind))
		d.streamHub.BroadcastMatchEvent(ev)
	})

	events := make(chan feed.Event, 1)
	go func() {
		defer close(events)
		_ = poller.Run(cycleCtx, events)
	}()

	return d.loop.Run(cycleCtx, events)
}

func (d *daemon) startHTTP(addr string) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		status := d.loop.Status()
		recorded, _ := d.store.SettlementCount(r.Context())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"loop":                 status,
			"recorded_settlements": recorded,
			"observers":            d.streamHub.ClientCount(),
		})
	})

	mux.HandleFunc("/parties", func(w http.ResponseWriter, r *http.Request) {
		top, err := d.store.TopParties(r.Context(), 50)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		summaries := make([]map[string]interface{}, len(top))
		for i, p := range top {
			summaries[i] = map[string]interface{}{
				"name":   p.Name,
				"rating": int(p.Rating),
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summaries)
	})

	mux.Handle("/metrics", promhttp.HandlerFor(d.metrics.Registry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("/ws", d.streamHub.ServeWS)

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Printf("HTTP server listening on %s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("HTTP server error: %v", err)
	}
}
