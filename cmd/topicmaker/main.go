package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/pkg/sigctx"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	partitions        = 3
	replicationFactor = 3
	delete            = "delete"
	compact           = "compact"
)

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	if !cfg.Broker.Enabled() {
		fmt.Println("broker.seed_brokers is empty, nothing to do")
		return
	}

	cl := createClient(cfg)
	defer cl.Close()

	defs := topicDefs(cfg)
	printStart(defs)
	defer printComplete(time.Now())

	var errs []error
	for _, def := range defs {
		if err := makeTopic(sigCtx, cl, def); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		printFail(err)
	}
}

type topicDef struct {
	name          string
	cleanupPolicy string
}

// topicDefs lists the order-lines stream and the demand group table.
// Group tables are compacted so the latest aggregate per product survives.
func topicDefs(cfg config.Config) []topicDef {
	return []topicDef{
		{name: cfg.Broker.Topics.OrderLines, cleanupPolicy: delete},
		{
			name:          toGroupTable(cfg.Broker.Consumers.ProductDemandGroup),
			cleanupPolicy: compact,
		},
	}
}

func createClient(cfg config.Config) *kadm.Client {
	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Broker.SeedBrokers...)}

	tls := cfg.Broker.TLS
	if tlsConfig := adapter.MakeTLSConfig(tls.CAFile, tls.CertFile, tls.KeyFile); tlsConfig != nil {
		opts = append(opts, kgo.DialTLSConfig(tlsConfig))
	}

	cl, err := kadm.NewOptClient(opts...)
	if err != nil {
		panic(err) // develop mistake
	}
	return cl
}

func makeTopic(ctx context.Context, cl *kadm.Client, def topicDef) error {
	minISR := "1"
	cleanupPolicy := def.cleanupPolicy

	topicConfig := map[string]*string{
		"cleanup.policy":      &cleanupPolicy,
		"min.insync.replicas": &minISR,
	}

	res, err := cl.CreateTopic(
		ctx, partitions, replicationFactor, topicConfig, def.name,
	)
	if errors.Is(err, kerr.TopicAlreadyExists) {
		fmt.Printf("topic: %q already exists\n", def.name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", def.name, err)
	}
	fmt.Printf("topic: %q successfully created\n", res.Topic)
	return nil
}

func printStart(defs []topicDef) {
	fmt.Println("initializing topics...")
	for _, def := range defs {
		fmt.Printf("\t- %q (cleanup.policy=%s)\n", def.name, def.cleanupPolicy)
	}
	fmt.Println()
}

func printComplete(start time.Time) {
	fmt.Printf("\ncomplete in %s\n", time.Since(start))
}

func printFail(err error) {
	fmt.Printf("failed to create topics: \n%s\n", err)
}

func toGroupTable(group string) string {
	return string(goka.GroupTable(goka.Group(group)))
}
