// notify-test publishes one status change event, for exercising the notifier
// against a local stack.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/NordCoder/pingerus-notifier/internal/domain/monitor"
	"github.com/NordCoder/pingerus-notifier/internal/obs"
	"github.com/NordCoder/pingerus-notifier/internal/repository/kafka"
)

func main() {
	var (
		brokers = flag.String("brokers", env("KAFKA_BROKERS", "localhost:9092"), "comma separated broker list")
		topic   = flag.String("topic", kafka.TopicStatusChanged, "target topic")
		id      = flag.Int64("id", 1, "monitor id")
		url     = flag.String("url", "https://example.com", "monitor url")
		status  = flag.String("status", string(monitor.StatusDown), "UP or DOWN")
		message = flag.String("message", "", "optional message; defaults to \"Website {url} is {status}\"")
	)
	flag.Parse()

	l, err := obs.NewLogger(&obs.LogConfig{Level: "debug", Pretty: true, App: "pingerus/notify-test"})
	if err != nil {
		log.Fatal(err)
	}

	ev := monitor.ChangeEvent{
		ID:      *id,
		URL:     *url,
		Status:  monitor.Status(*status).Normalize(),
		Message: *message,
	}
	if ev.Message == "" {
		ev.Message = "Website " + ev.URL + " is " + string(ev.Status)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p := kafka.NewProducer(strings.Split(*brokers, ","), *topic).WithLogger(l)
	defer func() { _ = p.Close() }()

	if err := kafka.NewStatusEventsKafka(p).PublishStatusChanged(ctx, ev); err != nil {
		l.Fatal("publish", zap.Error(err))
	}
	l.Info("status change published", zap.Int64("monitor_id", ev.ID), zap.String("status", string(ev.Status)))
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
