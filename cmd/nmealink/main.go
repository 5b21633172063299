package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"nmealink/internal/config"
	"nmealink/internal/feed"
	"nmealink/internal/publish"
	"nmealink/internal/web"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./nmealink.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	f := feed.New(feed.Config{
		Transport:     cfg.TransportConfig(),
		BatchInterval: cfg.Feed.BatchInterval,
		MaxBuffer:     cfg.Feed.MaxBuffer,
	})

	log.Printf("nmealink starting transport=%s", cfg.Feed.Transport)
	if err := f.Start(ctx); err != nil {
		log.Fatalf("feed start failed: %v", err)
	}
	defer f.Shutdown()

	var hub *web.Hub
	if cfg.Web.Enable {
		hub = web.NewHub()
		hub.Stats = f.Stats
		srv := &http.Server{Addr: cfg.Web.Addr, Handler: hub.Handler()}
		go func() {
			log.Printf("web listening addr=%s", cfg.Web.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("web server stopped: %v", err)
			}
		}()
		defer srv.Close()
	}

	var pub *publish.MQTT
	if cfg.Publish.Enable {
		pub, err = publish.NewMQTT(publish.MQTTConfig{
			Broker:   cfg.Publish.Broker,
			ClientID: cfg.Publish.ClientID,
			Topic:    cfg.Publish.Topic,
		})
		if err != nil {
			log.Fatalf("mqtt connect failed: %v", err)
		}
		log.Printf("mqtt publishing broker=%s topic=%s", cfg.Publish.Broker, cfg.Publish.Topic)
		defer pub.Close()
	}

	// The event channel closes when the connection ends, whatever the cause;
	// reconnection policy is deliberately left to the operator.
	for ev := range f.Events() {
		if hub != nil {
			hub.HandleEvent(ev)
		}
		switch e := ev.(type) {
		case feed.StatusEvent:
			log.Printf("feed status=%s", e.Status)
		case feed.ErrorEvent:
			log.Printf("feed error kind=%s msg=%q", e.Err.Kind, e.Err.Message)
		case feed.DataEvent:
			if pub != nil {
				if err := pub.Publish(e.Fix); err != nil {
					log.Printf("mqtt publish failed: %v", err)
				}
			}
		}
	}

	log.Printf("nmealink stopped")
}
