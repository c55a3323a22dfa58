package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quizsystem/web-module/auth"
	"github.com/quizsystem/web-module/authclient"
	"github.com/quizsystem/web-module/internal/config"
	"github.com/quizsystem/web-module/mainmodule"
	"github.com/quizsystem/web-module/server"
	"github.com/quizsystem/web-module/sessions/redisrepo"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	redisClient := redis.NewClient(&redis.Options{
		Addr:     c.GetRedisAddr(),
		Password: c.GetRedisPassword(),
	})
	defer redisClient.Close()

	repo := redisrepo.New(redisClient)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	latency, err := repo.Ping(pingCtx)
	cancelPing()
	if err != nil {
		return fmt.Errorf("session store ping: %w", err)
	}
	log.Info().Str("addr", c.GetRedisAddr()).Dur("latency", latency).Msg("session store connected")

	literals := c.GetAuthStatusLiterals()
	authClient := authclient.New(c.GetAuthServerURL(), c.GetAuthTimeout(), authclient.StatusMap{
		Pending:      literals.Pending,
		Granted:      literals.Granted,
		Denied:       literals.Denied,
		UnknownToken: literals.UnknownToken,
		ExpiredToken: literals.Expired,
	})

	checkService := auth.NewCheckService(authClient, repo, c.GetSessionTTL())
	mainAPI := mainmodule.New(c.GetMainModuleURL(), c.GetAuthTimeout(), authClient, repo, c.GetSessionTTL())

	gateway, err := server.New(c, repo, checkService, authClient, mainAPI)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: gateway}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func setupLogging(c config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
