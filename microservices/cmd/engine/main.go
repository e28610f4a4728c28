package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/anthon-sd/rookify-sub000/internal/bootstrap"
	"github.com/anthon-sd/rookify-sub000/microservices/enginerpc"
	"github.com/anthon-sd/rookify-sub000/microservices/repository"
	"github.com/anthon-sd/rookify-sub000/microservices/usecase"
)

func main() {
	cfgPath := flag.String("config", ".env", "path to the .env config file")
	flag.Parse()

	cfg, err := bootstrap.Setup(*cfgPath)
	if err != nil {
		panic("failed to setup configuration: " + err.Error())
	}
	logger, err := bootstrap.NewLogger(cfg.LogLevel)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	engineStorage := repository.NewEngineRepository(cfg, logger)
	defer engineStorage.Close()

	warmupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = engineStorage.Warmup(warmupCtx)
	cancel()
	if err != nil {
		logger.Fatalw("engine warmup failed", "path", cfg.EnginePath, "error", err)
	}

	lis, err := net.Listen("tcp", ":"+cfg.EngineGrpcPort)
	if err != nil {
		logger.Fatalw("cant listen port", "port", cfg.EngineGrpcPort, "error", err)
	}

	server := grpc.NewServer()
	enginerpc.RegisterEngineServiceServer(server, usecase.NewEngineUseCase(engineStorage, logger))

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		logger.Info("received shutdown signal")
		server.GracefulStop()
	}()

	logger.Infow("engine service listening", "port", cfg.EngineGrpcPort, "pool_size", cfg.EnginePoolSize)
	if err := server.Serve(lis); err != nil {
		logger.Errorw("grpc server stopped", "error", err)
	}
}
