package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gitlab.com/openqna/candour/internal/bulletin"
	"gitlab.com/openqna/candour/internal/db"
	"gitlab.com/openqna/candour/internal/ledger"
	"gitlab.com/openqna/candour/internal/models"
	"gitlab.com/openqna/candour/internal/routes"
)

const usage = `Usage:
	- start
	- migrate [up/down/drop]
	- newmod [name] [email] [passwd]`

func main() {
	if len(os.Args) == 1 {
		fmt.Println(usage)
		return
	}
	envConfig := models.ReadEnvConfig()
	switch os.Args[1] {
	case "start":
		server := CandourServer{EnvConfig: envConfig}
		server.Setup()
		server.Run()
	case "migrate":
		if len(os.Args) < 3 {
			fmt.Println(usage)
			return
		}
		var err error
		switch os.Args[2] {
		case "up":
			err = db.MigrateUp(envConfig.DatabaseURL)
		case "down":
			err = db.MigrateDown(envConfig.DatabaseURL)
		case "drop":
			err = db.Drop(envConfig.DatabaseURL)
		default:
			fmt.Println(usage)
			return
		}
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println("Done")
	case "newmod":
		if len(os.Args) < 5 {
			fmt.Println(usage)
			return
		}
		database, err := db.Connect(&envConfig)
		if err != nil {
			fmt.Println(err)
			return
		}
		mod := &models.Moderator{Name: os.Args[2], Email: os.Args[3]}
		if err := database.CreateModerator(context.Background(), mod, os.Args[4]); err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println("Done")
	default:
		fmt.Println(usage)
	}
}

type CandourServer struct {
	models.EnvConfig
	addr       string
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	database   db.SharedDB
	board      bulletin.Board
	ledger     *ledger.Service
}

func (server *CandourServer) setupLogger() {
	var writer io.Writer
	if server.Debug {
		writer = zerolog.ConsoleWriter{Out: os.Stdout}
	} else {
		writer = os.Stdout
	}
	log := zerolog.New(writer).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	server.logger = log
}
func (server *CandourServer) setupDB() {
	err := db.MigrateUp(server.DatabaseURL)
	if err != nil {
		server.logger.Fatal().Err(err).Send()
	}
	database, err := db.Connect(&server.EnvConfig)
	if err != nil {
		server.logger.Fatal().AnErr("Connecting to db", err).Send()
	}
	server.database = database
}
func (server *CandourServer) setupBoard() {
	if server.BulletinURL == "" {
		server.logger.Info().Msg("No bulletin board URL configured, using the in-process board")
		server.board = bulletin.NewMemoryBoard()
		return
	}
	server.board = bulletin.NewHTTPBoard(server.BulletinURL)
}
func (server *CandourServer) setupLedger() {
	server.ledger = ledger.NewService(&server.database, server.board, server.logger)
}
func (server *CandourServer) setupRouter() {
	server.router = routes.NewRouter(&server.database, server.ledger, server.logger)
}
func (server *CandourServer) setupHttpServer() {
	server.addr = fmt.Sprintf("localhost:%s", server.EnvConfig.Port)
	server.httpServer = &http.Server{
		Addr:         server.addr,
		Handler:      server.router,
		ReadTimeout:  1 * time.Minute,
		WriteTimeout: 1 * time.Minute,
	}
}
func (server *CandourServer) Setup() {
	server.setupLogger()
	server.setupDB()
	server.setupBoard()
	server.setupLedger()
	server.setupRouter()
	server.setupHttpServer()
}
func (server *CandourServer) Shutdown() {
	if err := server.httpServer.Shutdown(context.Background()); err != nil {
		server.logger.Error().
			Err(err).
			Msg("Error shutting down")
	}
}
func (server *CandourServer) Run() {
	server.logger.Info().Str("server_address", server.addr).Msg("Server is starting")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go server.httpServer.ListenAndServe()
	server.logger.Info().Msg("Ready")

	<-ctx.Done()
	stop() // Stop listening for signals
	server.logger.Info().Msg("Shutting down gracefully")
	server.Shutdown()
}
