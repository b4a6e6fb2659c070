// Command renderer wires the audio-renderer core to an in-process
// SinkTransport and a command-line URI, for manual/local exercising of
// the pipeline; discovery, control-point protocol handling, and the
// concrete LAN wire format are deliberately left to whatever embeds
// this core as a library.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/anandp/direnderer/internal/config"
	"github.com/anandp/direnderer/internal/decode"
	"github.com/anandp/direnderer/internal/engine"
	"github.com/anandp/direnderer/internal/facade"
	"github.com/anandp/direnderer/internal/format"
	"github.com/anandp/direnderer/internal/log"
	"github.com/anandp/direnderer/internal/monitor"
	"github.com/anandp/direnderer/internal/pipeline"
	"github.com/anandp/direnderer/internal/sink"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()
	setLogLevel(cfg.LogLevel)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: renderer <uri> [next-uri]")
		return 1
	}
	uri := os.Args[1]

	sinkT := sink.NewMock(format.SinkCapabilities{
		PCMBitDepths: []int{32, 24, 16},
		DSDLayouts: []format.DSDLayout{
			{BitOrder: format.BitOrderLSBFirst, Endianness: format.EndianBig},
			{BitOrder: format.BitOrderMSBFirst, Endianness: format.EndianBig},
			{BitOrder: format.BitOrderLSBFirst, Endianness: format.EndianLittle},
			{BitOrder: format.BitOrderMSBFirst, Endianness: format.EndianLittle},
		},
	})
	if _, err := sinkT.Discover(cfg.TargetIndex); err != nil {
		log.Errorf("startup: sink discovery failed: %v", err)
		return 1
	}

	pipe := pipeline.New(sinkT)

	var monTap *monitor.Tap
	if cfg.MonitorEnabled {
		monTap = monitor.NewTap()
		pipe.SetMonitorTap(monTap)
		handler := monitor.NewHandler(monTap)
		mux := http.NewServeMux()
		mux.Handle("/monitor/offer", handler)
		mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"listeners":%d}`, handler.PeerCount())
		})
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Port)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Warnf("monitor: http server stopped: %v", err)
			}
		}()
	}

	engCfg := engine.Config{
		FormatChangeSettleDelay: cfg.FormatChangeSettleDelay,
		ShutdownSilenceCyclesPCM: cfg.ShutdownSilenceCyclesPCM,
		ShutdownSilenceCyclesDSD: cfg.ShutdownSilenceCyclesDSD,
		RingSecondsPCM:           cfg.RingSecondsPCM,
		RingSecondsDSD:           cfg.RingSecondsDSD,
		ProducerCallbackTimeout:  cfg.ProducerCallbackTimeout,
	}

	eng := engine.NewTrackEngine(sinkT, pipe, engCfg, engine.Callbacks{})
	rf := facade.New(eng, facade.Events{
		OnTrackChange: func(uri string, meta map[string]string, n int) {
			log.Infof("track %d: %s", n, uri)
		},
		OnStateChange: func(s engine.State) {
			log.Infof("state: %s", s)
		},
		OnPositionTick: func(pos, dur float64) {
			log.Debugf("position: %s", decode.FormatTimeString(pos))
		},
	})
	eng.SetCallbacks(rf.EngineCallbacks())

	if err := rf.SetCurrentURI(uri, nil); err != nil {
		log.Errorf("startup: setCurrentURI failed: %v", err)
		return 1
	}
	if len(os.Args) > 2 {
		rf.SetNextURI(os.Args[2], nil)
	}
	if err := rf.Play(); err != nil {
		log.Errorf("startup: play failed: %v", err)
		return 1
	}
	rf.StartPositionTicks()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	rf.StopPositionTicks()
	if err := rf.Stop(); err != nil {
		log.Errorf("shutdown: stop failed: %v", err)
		return 1
	}
	sinkT.Close()
	return 0
}

func setLogLevel(name string) {
	switch name {
	case "debug":
		log.SetLevel(log.LevelDebug)
	case "warn":
		log.SetLevel(log.LevelWarn)
	case "error":
		log.SetLevel(log.LevelError)
	default:
		log.SetLevel(log.LevelInfo)
	}
}
