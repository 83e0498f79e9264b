package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"time"

	"qrsim/config"
	"qrsim/domain/book"
	"qrsim/infra/kafka"
	"qrsim/infra/logging"
	"qrsim/infra/metrics"
	"qrsim/infra/results"
	"qrsim/infra/tape"
	"qrsim/jobs/broadcaster"
	"qrsim/sim"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults used when empty)")
	flag.Parse()

	// ---------------- Config ----------------

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	// ---------------- Logging ----------------

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Pretty)

	// ---------------- Metrics ----------------

	if cfg.Metrics.Enabled {
		reg := metrics.Init(logger)
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(reg))
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Error().Err(err).Msg("metrics server exited")
			}
		}()
	}

	// ---------------- Intensities ----------------

	limit, err := book.NewIntensity("limit_order", map[string]float64{
		"base_intensity": cfg.Intensity.BaseIntensity,
		"alpha":          cfg.Intensity.Alpha,
	})
	if err != nil {
		log.Fatalf("limit intensity: %v", err)
	}
	cancel, err := book.NewIntensity("cancellation", map[string]float64{
		"mu": cfg.Intensity.Mu,
	})
	if err != nil {
		log.Fatalf("cancellation intensity: %v", err)
	}
	market, err := book.NewIntensity("market_order", map[string]float64{
		"theta": cfg.Intensity.ThetaMarket,
	})
	if err != nil {
		log.Fatalf("market intensity: %v", err)
	}

	depth, err := book.NewUniformInt(cfg.Sim.DepthMin, cfg.Sim.DepthMax)
	if err != nil {
		log.Fatalf("depth distribution: %v", err)
	}
	sizes, err := book.NewUniformInt(cfg.Sim.SizeMin, cfg.Sim.SizeMax)
	if err != nil {
		log.Fatalf("order-size distribution: %v", err)
	}

	// ---------------- Simulator ----------------

	simulator, err := sim.New(sim.Params{
		K:           cfg.Sim.K,
		TickSize:    cfg.Sim.TickSize,
		RefPrice:    cfg.Sim.ReferencePrice,
		Theta:       cfg.Sim.Theta,
		ThetaReinit: cfg.Sim.ThetaReinit,
		Seed:        cfg.Sim.Seed,
		Depth:       depth,
		OrderSizes:  sizes,
		Limit:       limit,
		Cancel:      cancel,
		Market:      market,
		Mirror:      cfg.Sim.MirrorOrders,
	}, logger)
	if err != nil {
		log.Fatalf("simulator init failed: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// ---------------- Event Tape ----------------

	if cfg.Tape.Enabled {
		eventLog, err := tape.Open(tape.Config{
			Dir:             cfg.Tape.Dir,
			SegmentSize:     cfg.Tape.SegmentSize,
			SegmentDuration: time.Minute,
		})
		if err != nil {
			log.Fatalf("tape init failed: %v", err)
		}
		defer eventLog.Close()

		simulator.SetRecorder(sim.RecorderFunc(func(step int, ev book.Event) error {
			data, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			return eventLog.Append(tape.Record{
				Kind: uint8(ev.Kind),
				Step: uint64(step),
				Data: data,
			})
		}))
	}

	// ---------------- Results Outbox ----------------

	var store *results.Store
	if cfg.Results.Enabled {
		store, err = results.Open(cfg.Results.Dir)
		if err != nil {
			log.Fatalf("results store init failed: %v", err)
		}
		defer store.Close()

		simulator.AddSink(sinkFunc(func(s sim.Snapshot) error {
			payload, err := json.Marshal(s)
			if err != nil {
				return err
			}
			return store.Put(uint64(s.Step), payload)
		}))
	}

	// ---------------- Broadcaster ----------------

	var bc *broadcaster.Broadcaster
	if cfg.Broadcast.Enabled {
		bc, err = broadcaster.New(store, cfg.Broadcast.Brokers, cfg.Broadcast.Topic, logger)
		if err != nil {
			log.Fatalf("broadcaster init failed: %v", err)
		}
		defer bc.Close()
		go bc.Run(ctx)
	}

	// ---------------- Live Stream ----------------

	if cfg.Stream.Enabled {
		producer := kafka.NewProducer(cfg.Stream.Brokers, cfg.Stream.Topic)
		defer producer.Close()

		simulator.AddSink(sinkFunc(func(s sim.Snapshot) error {
			payload, err := json.Marshal(s)
			if err != nil {
				return err
			}
			if err := producer.Send(ctx, []byte(sim.SnapshotKey(s)), payload); err != nil {
				logger.Warn().Err(err).Int("step", s.Step).Msg("live publish failed")
			}
			return nil
		}))
	}

	// ---------------- Run ----------------

	start := time.Now()
	snapshots, err := simulator.Run(ctx, cfg.Sim.NumSteps)
	if err != nil {
		log.Fatalf("simulation failed: %v", err)
	}

	if bc != nil {
		bc.Drain()
	}

	last := snapshots[len(snapshots)-1]
	logger.Info().
		Int("steps", len(snapshots)).
		Float64("sim_time", last.Time).
		Float64("reference_price", last.RefPrice).
		Dur("elapsed", time.Since(start)).
		Msg("simulation complete")
}

// sinkFunc adapts a function to the sim.SnapshotSink interface.
type sinkFunc func(s sim.Snapshot) error

func (f sinkFunc) Put(s sim.Snapshot) error { return f(s) }
