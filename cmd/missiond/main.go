package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"github.com/fieldops/missiond/internal/config"
	"github.com/fieldops/missiond/internal/database"
	"github.com/fieldops/missiond/internal/missions"
	"github.com/fieldops/missiond/internal/repository"
)

var (
	gitRevision = "unknown"
	gitBranch   = "unknown"
)

type App struct {
	logger   *slog.Logger
	config   *config.AppConfig
	dbm      *database.DatabaseManager
	missions *missions.MissionManager
	users    repository.UserRepository
}

func NewApp(cfg *config.AppConfig) *App {
	conn := database.NewConnector(func() (db *gorm.DB, err error) {
		return database.Open(cfg.DB())
	})

	dbm := database.New(conn)

	return &App{
		logger:   slog.Default().With(slog.String("logger", "app")),
		config:   cfg,
		dbm:      dbm,
		missions: missions.New(dbm),
		users:    repository.NewFileUserRepo(cfg.UsersFile()),
	}
}

func (app *App) Run() {
	if err := app.users.Start(); err != nil {
		app.logger.Error("error loading users", slog.Any("error", err))
	}

	srv := NewHttp(app, app.config.ApiAddr())

	go func() {
		if err := srv.Listen(); err != nil {
			app.logger.Error("http server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	app.logger.Info("exiting")
	app.users.Stop()
	app.dbm.Connector().Disconnect()
}

func main() {
	configName := flag.String("config", "missiond.yml", "config file")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	cfg := config.NewAppConfig()
	cfg.Load(*configName)

	if err := cfg.LoadEnv("MISSIOND_"); err != nil {
		panic(err)
	}

	if *debug {
		_ = cfg.Set("debug", true)
	}

	level := slog.LevelInfo
	if cfg.Debug() {
		level = slog.LevelDebug
	}

	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level, AddSource: false})
	slog.SetDefault(slog.New(h))

	slog.Info("version " + getVersion())

	NewApp(cfg).Run()
}

func getVersion() string {
	if gitBranch != "master" && gitBranch != "main" && gitBranch != "unknown" {
		return gitRevision + ":" + gitBranch
	}

	return gitRevision
}
