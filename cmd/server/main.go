package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"semantra.io/internal/game"
	"semantra.io/internal/hint"
	"semantra.io/internal/journal"
	"semantra.io/internal/protocol"
	"semantra.io/internal/server"
	"semantra.io/internal/stats"
	storesqlite "semantra.io/internal/store/sqlite"
	"semantra.io/internal/transport/ws"
	"semantra.io/internal/tuning"
	"semantra.io/internal/words"
)

// envConfig carries deploy-time settings; flags take precedence when set.
type envConfig struct {
	Addr           string `env:"SEMANTRA_ADDR"`
	DataDir        string `env:"SEMANTRA_DATA"`
	HintEndpoint   string `env:"SEMANTRA_HINT_URL"`
	StatsEndpoint  string `env:"SEMANTRA_STATS_URL"`
	WordsPath      string `env:"SEMANTRA_WORDS"`
	DisableJournal bool   `env:"SEMANTRA_DISABLE_JOURNAL"`
}

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		configDir  = flag.String("configs", "./configs", "config directory")
		schemaDir  = flag.String("schemas", "./schemas", "wire schema directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		wordsPath  = flag.String("words", "", "yaml word set (default: words db under <data>)")
		wordsDB    = flag.String("words_db", "", "sqlite word set db (default: <data>/words.sqlite)")
		hintURL    = flag.String("hint_url", "", "hint generation endpoint (empty: built-in static hints)")
		statsURL   = flag.String("stats_url", "", "leaderboard endpoint (empty: log final scores)")
		noJournal  = flag.Bool("disable_journal", false, "disable the action journal")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		logger.Fatalf("parse env: %v", err)
	}
	pick := func(flagVal, envVal string) string {
		if strings.TrimSpace(flagVal) != "" {
			return strings.TrimSpace(flagVal)
		}
		return strings.TrimSpace(envVal)
	}
	listen := pick(*addr, ec.Addr)
	if listen == "" {
		listen = ":8080"
	}
	data := pick(*dataDir, ec.DataDir)
	if data == "" {
		data = "./data"
	}
	_ = os.MkdirAll(data, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	schemas, err := protocol.LoadSchemas(*schemaDir)
	if err != nil {
		logger.Fatalf("load schemas: %v", err)
	}

	store, err := storesqlite.Open(filepath.Join(data, "sessions.sqlite"))
	if err != nil {
		logger.Fatalf("open session store: %v", err)
	}
	defer store.Close()

	wordSource, closeWords, err := openWords(pick(*wordsPath, ec.WordsPath), *wordsDB, data, logger)
	if err != nil {
		logger.Fatalf("open word source: %v", err)
	}
	if closeWords != nil {
		defer closeWords()
	}

	var hints game.HintGenerator = hint.Static{}
	if u := pick(*hintURL, ec.HintEndpoint); u != "" {
		hints = hint.NewHTTP(u)
	}

	var reporter game.Reporter = &stats.Log{Logger: logger}
	if u := pick(*statsURL, ec.StatsEndpoint); u != "" {
		reporter = stats.NewHTTP(u)
	}

	var recorder game.Recorder
	var jw *journal.Writer
	if !*noJournal && !ec.DisableJournal {
		jw = journal.NewWriter(filepath.Join(data, "journal"), logger)
		defer jw.Close()
		recorder = jw
	}

	hub := ws.NewHub(logger)
	engine := game.New(game.Config{
		Store:   store,
		Notify:  hub,
		Hints:   hints,
		Words:   wordSource,
		Stats:   reporter,
		Journal: recorder,
		Tuning:  tune,
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:              listen,
		Handler:           server.New(engine, hub, schemas, tune, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s", listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
	logger.Printf("bye")
}

// openWords prefers an explicit yaml set, then the sqlite words db.
func openWords(yamlPath, dbPath, dataDir string, logger *log.Logger) (game.WordSource, func(), error) {
	if yamlPath != "" {
		src, err := words.NewStaticFromFile(yamlPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Printf("word set: %s (%d words)", yamlPath, len(src.Set))
		return src, nil, nil
	}
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "words.sqlite")
	}
	src, err := words.OpenSQLite(dbPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Printf("word set: %s", dbPath)
	return src, func() { _ = src.Close() }, nil
}
