package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/MarkoPoloResearchLab/escrow/api/escrow/v1"
	"github.com/MarkoPoloResearchLab/escrow/internal/cache"
	"github.com/MarkoPoloResearchLab/escrow/internal/events"
	"github.com/MarkoPoloResearchLab/escrow/internal/grpcserver"
	"github.com/MarkoPoloResearchLab/escrow/internal/oplog"
	"github.com/MarkoPoloResearchLab/escrow/pkg/escrow"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func runServer(ctx context.Context, cfg *runtimeConfig) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("store open: %w", err)
	}
	defer func() { _ = closeStore() }()

	platform, err := escrow.NewPartyID(cfg.PlatformParty)
	if err != nil {
		return fmt.Errorf("platform party: %w", err)
	}
	options := []escrow.ServiceOption{
		escrow.WithOperationLogger(oplog.New(logger)),
		escrow.WithRecordRent(escrow.Amount(cfg.RecordRent)),
	}

	publisher, err := buildPublisher(cfg)
	if err != nil {
		return err
	}
	if publisher != nil {
		defer func() { _ = publisher.Close() }()
		options = append(options, escrow.WithEventPublisher(publisher))
	}

	if cfg.RedisAddr != "" {
		bookingCache, err := cache.NewRedisBookingCache(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.RedisTTL,
		})
		if err != nil {
			return err
		}
		defer func() { _ = bookingCache.Close() }()
		options = append(options, escrow.WithBookingCache(bookingCache))
	}

	clock := func() int64 { return time.Now().UTC().Unix() }
	escrowService, err := escrow.NewService(store, clock, platform, options...)
	if err != nil {
		return fmt.Errorf("escrow service init: %w", err)
	}

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	grpcServer := grpc.NewServer()
	escrowv1.RegisterEscrowServiceServer(grpcServer, grpcserver.NewEscrowServiceServer(escrowService))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC server starting",
			zap.String("listen_addr", cfg.ListenAddr),
			zap.String("store", cfg.StoreBackend),
			zap.String("platform", platform.String()),
		)
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
		grpcServer.GracefulStop()
		if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
			return serveErr
		}
		return nil
	case serveErr := <-errCh:
		if errors.Is(serveErr, grpc.ErrServerStopped) {
			return nil
		}
		return serveErr
	}
}

type closingPublisher interface {
	escrow.EventPublisher
	io.Closer
}

// buildPublisher returns nil when no broker is configured.
func buildPublisher(cfg *runtimeConfig) (closingPublisher, error) {
	switch {
	case len(cfg.KafkaBrokers) > 0:
		publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		return publisher, nil
	case cfg.AMQPURL != "":
		publisher, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			return nil, fmt.Errorf("amqp publisher: %w", err)
		}
		return publisher, nil
	default:
		return nil, nil
	}
}
