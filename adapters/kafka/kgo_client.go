package kafka

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	berr "github.com/next-trace/scg-rideshare/contract/errors"
)

// Concrete franz-go based constructor, writer and reader.

type Config struct {
	Brokers     []string
	TLS         *tls.Config
	Acks        *kgo.Acks // nil keeps the client default
	Idempotent  bool
	ClientID    string
	Compression []kgo.CompressionCodec // in order of preference
}

type kgoClient struct {
	cl     *kgo.Client
	base   []kgo.Opt
	logger *slog.Logger
}

func (w *kgoClient) Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error {
	rec := &kgo.Record{Topic: topic, Key: key, Value: value}
	if len(headers) > 0 {
		rec.Headers = make([]kgo.RecordHeader, 0, len(headers))
		for k, v := range headers {
			rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
		}
	}

	return w.cl.ProduceSync(ctx, rec).FirstErr()
}

// Read starts a dedicated client per subscription and polls until stopped.
func (w *kgoClient) Read(topic, group string, cb func(value []byte)) (func() error, error) {
	opts := append([]kgo.Opt(nil), w.base...)
	opts = append(opts, kgo.ConsumeTopics(topic))

	if group != "" {
		opts = append(opts, kgo.ConsumerGroup(group))
	} else {
		opts = append(opts, kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()))
	}

	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		for {
			fetches := cl.PollFetches(ctx)
			if fetches.IsClientClosed() || ctx.Err() != nil {
				return
			}

			fetches.EachError(func(t string, p int32, err error) {
				w.logger.Warn("kafka fetch error", "topic", t, "partition", p, "err", err)
			})
			fetches.EachRecord(func(r *kgo.Record) { cb(r.Value) })
		}
	}()

	stop := func() error {
		cancel()
		cl.Close()

		return nil
	}

	return stop, nil
}

func (w *kgoClient) Close() error {
	w.cl.Close()
	return nil
}

// NewWithKgo builds a franz-go client based Adapter. The returned cleanup should be called to close the client.
func NewWithKgo(cfg Config) (*Adapter, func(), error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil, fmt.Errorf("%w: kafka brokers required", berr.ErrPublishFailed)
	}
	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Brokers...), kgo.AllowAutoTopicCreation()}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	if cfg.TLS != nil {
		opts = append(opts, kgo.DialTLSConfig(cfg.TLS))
	}

	producerOpts := append([]kgo.Opt(nil), opts...)
	if len(cfg.Compression) > 0 {
		producerOpts = append(producerOpts, kgo.ProducerBatchCompression(cfg.Compression...))
	}
	if !cfg.Idempotent {
		producerOpts = append(producerOpts, kgo.DisableIdempotentWrite())
	}
	if cfg.Acks != nil && !cfg.Idempotent {
		producerOpts = append(producerOpts, kgo.RequiredAcks(*cfg.Acks))
	}

	cl, err := kgo.NewClient(producerOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: kafka client init: %w", berr.ErrPublishFailed, err)
	}

	kc := &kgoClient{cl: cl, base: opts, logger: slog.Default()}
	ad := New(kc, kc)
	cleanup := func() { _ = kc.Close() }

	return ad, cleanup, nil
}
