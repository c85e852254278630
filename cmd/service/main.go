package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Ayooluwabami/Blogging-API/internal"
	"github.com/Ayooluwabami/Blogging-API/internal/config"
	"github.com/Ayooluwabami/Blogging-API/internal/logging"
	"github.com/Ayooluwabami/Blogging-API/pkg"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development | ddev | dockerdev ]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	// a missing .env is fine, the environment may be set already
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("load .env: %s", err)
	}

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	if cfg.LogsPath != "" {
		ensureLogsDir(cfg.LogsPath)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.LogsPath,
		LogToStdout:   cfg.LogToStdout,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
	})

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)

	secretKey := os.Getenv("SECRET_KEY")
	if secretKey == "" {
		log.Fatalln("token signing key not set, use SECRET_KEY env var to set it")
	}

	redisPassword := os.Getenv("REDIS_PASS")
	if redisPassword == "" && cfg.RedisHost != "" {
		log.Warnln("redis password not set. use REDIS_PASS")
	}

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	if honeycombEnabled {
		if honeycombApiKey := os.Getenv("HONEYCOMB_API_KEY"); honeycombApiKey == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
	} else {
		log.Debugln("honeycomb tracing disabled")
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			SecretKey:               secretKey,
			RedisPassword:           redisPassword,
			HoneycombTracingEnabled: honeycombEnabled,
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, killing everything ...", receivedSig)
	cancel()

	server.GracefulShutdown()
}

// ensureLogsDir creates the directory of the log file if it is missing.
func ensureLogsDir(logsPath string) {
	dir := filepath.Dir(logsPath)
	exists, err := pkg.PathExists(dir, true)
	if err != nil {
		log.Fatalf("check logs dir: %s", err)
	}
	if exists {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatalf("create logs dir %s: %s", dir, err)
	}
}
