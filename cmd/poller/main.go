package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/2beens/formcheck/internal/coach"
	"github.com/2beens/formcheck/internal/formcheck"
	"github.com/2beens/formcheck/internal/localstore"
	"github.com/2beens/formcheck/internal/logging"
	"github.com/2beens/formcheck/internal/poller"
	"github.com/2beens/formcheck/internal/posesource"
	"github.com/2beens/formcheck/internal/telemetry/metrics"
	"github.com/2beens/formcheck/internal/workout"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func main() {
	exercise := flag.String("exercise", "squat", "exercise type, e.g. squat, pushup, lunge, deadlift, plank")
	source := flag.String("source", "", "JSON lines file with frames, or http(s) URL of a pose provider")
	interval := flag.Duration("interval", 300*time.Millisecond, "polling interval")
	dbPath := flag.String("db", "./formcheck.db", "path of the local SQLite summary store")
	coachURL := flag.String("coach-url", "", "coaching service URL (empty to skip coaching)")
	coachTimeout := flag.Duration("coach-timeout", coach.DefaultTimeout, "coaching request timeout")
	hysteresis := flag.Int("hysteresis", 1, "consecutive frames a new phase must be seen before it is accepted")
	logLevel := flag.String("log-level", "info", "log level")
	metricsAddr := flag.String("metrics-addr", "", "address to expose prometheus metrics on (empty to disable)")
	flag.Parse()

	logging.Setup(logging.LoggerSetupParams{
		LogToStdout: true,
		LogLevel:    *logLevel,
	})

	et, err := formcheck.ParseExerciseType(*exercise)
	if err != nil {
		log.Fatalf("exercise: %s", err)
	}
	if *source == "" {
		log.Fatalln("frames source not set, use -source")
	}

	src, closeSource, err := openSource(*source, *interval)
	if err != nil {
		log.Fatalf("open source: %s", err)
	}
	defer closeSource()

	store, err := localstore.Open(*dbPath)
	if err != nil {
		log.Fatalf("open local store: %s", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Errorf("close local store: %s", err)
		}
	}()

	engineCfg := formcheck.DefaultConfig()
	engineCfg.HysteresisFrames = *hysteresis

	params := workout.Params{
		Engine:   formcheck.NewEngine(engineCfg),
		Exercise: et,
		Source:   src,
		Store:    store,
	}
	if *coachURL != "" {
		params.Coach = coach.NewClient(*coachURL, *coachTimeout)
	}

	w := workout.New(params)
	log.Infof("session %s started: %s", w.SessionID(), et)

	promRegistry := metrics.SetupClientPrometheus()
	metricsManager := metrics.NewManager("formcheck", "poller", promRegistry)
	if *metricsAddr != "" {
		metricsServer := serveMetrics(*metricsAddr, promRegistry)
		defer func() {
			if err := metricsServer.Close(); err != nil {
				log.Errorf("close metrics server: %s", err)
			}
		}()
	}
	p, err := poller.New(*interval, w.Step, metricsManager)
	if err != nil {
		log.Fatalf("new poller: %s", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p.Run(ctx)
	if ctx.Err() != nil {
		log.Warnln("interrupted, finishing session ...")
	}

	stats := p.Stats()
	log.Infof("poller stats: fired=%d dropped=%d failed=%d, frames processed: %d", stats.Fired, stats.Dropped, stats.Failed, w.Processed())

	// the signal context is done by now
	finishCtx, finishCancel := context.WithTimeout(context.Background(), *coachTimeout+5*time.Second)
	defer finishCancel()

	res, err := w.Finish(finishCtx, false)
	if err != nil {
		log.Errorf("finish session: %s", err)
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		log.Errorf("marshal result: %s", err)
		return
	}
	fmt.Println(string(out))
}

func serveMetrics(addr string, registry *prometheus.Registry) *http.Server {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}
	go func() {
		log.Debugf(" > metrics listening on: [%s]", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server: %s", err)
		}
	}()
	return server
}

func openSource(source string, interval time.Duration) (posesource.Source, func(), error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		// a request may not outlive the tick it was made for by much
		return posesource.NewHTTPSource(source, 2*interval+time.Second), func() {}, nil
	}

	fileSource, err := posesource.OpenFileSource(source)
	if err != nil {
		return nil, nil, err
	}
	return fileSource, func() {
		if err := fileSource.Close(); err != nil {
			log.Errorf("close frames file: %s", err)
		}
	}, nil
}
