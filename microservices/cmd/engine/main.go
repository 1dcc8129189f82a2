package main

import (
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"omega/internal/bootstrap"
	"omega/internal/repository"
	analysisRPC "omega/microservices/proto"
	"omega/microservices/usecase"
)

// The engine process inherits the environment, so variables such as the
// OpenCL device selection can live in the same .env file.
func init() {
	if err := godotenv.Load(); err != nil {
		log.Print("no .env file loaded into the environment")
	}
}

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Errorw("failed to setup configuration", "error", err)
		return
	}

	engine, err := repository.NewEngineClient(cfg, logger)
	if err != nil {
		logger.Fatalw("failed to start engine", "error", err)
	}
	defer engine.Shutdown()

	lis, err := net.Listen("tcp", ":"+cfg.EngineRPCPort)
	if err != nil {
		logger.Fatalw("cant listen port", "port", cfg.EngineRPCPort, "error", err)
	}

	server := grpc.NewServer()
	analysisRPC.RegisterAnalysisServer(server, usecase.NewAnalysisUseCase(logger, engine))

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		logger.Info("received shutdown signal")
		server.GracefulStop()
	}()

	logger.Infow("analysis service listening", "port", cfg.EngineRPCPort)
	if err := server.Serve(lis); err != nil {
		logger.Errorw("analysis service stopped", "error", err)
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	return logger.Sugar()
}
