package main

import (
	"runtime/pprof"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldops/missiond/internal/wshandler"
	"github.com/fieldops/missiond/pkg/log"
)

type HttpServer struct {
	f    *fiber.App
	addr string
}

func NewHttp(app *App, addr string) *HttpServer {
	srv := &HttpServer{addr: addr}

	srv.f = fiber.New(fiber.Config{EnablePrintRoutes: false, DisableStartupMessage: true})

	srv.f.Use(log.NewFiberLogger(&log.LoggerConfig{Name: "api", UserGetter: Username}))

	addMissionApi(app, srv.f)

	srv.f.Get("/health", getHealthHandler(app))
	srv.f.Get("/ws", getUserAuth(app.users), getWsHandler(app))
	srv.f.Get("/stack", getStackHandler())
	srv.f.Get("/metrics", getMetricsHandler())

	return srv
}

func (srv *HttpServer) Address() string {
	return srv.addr
}

func (srv *HttpServer) Listen() error {
	return srv.f.Listen(srv.addr)
}

func getHealthHandler(app *App) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"status": "ok", "db": app.missions.Ready(), "version": getVersion()})
	}
}

func getStackHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return pprof.Lookup("goroutine").WriteTo(ctx, 1)
	}
}

func getMetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{DisableCompression: true},
	))
}

func getWsHandler(app *App) fiber.Handler {
	return websocket.New(func(ws *websocket.Conn) {
		name := uuid.NewString()

		h := wshandler.NewHandler(app.logger, name, ws)

		app.logger.Debug("ws listener connected")
		app.missions.ChangeCallback().SubscribeNamed(name, h.SendChange)
		h.Listen()
		app.logger.Debug("ws listener disconnected")
	})
}
