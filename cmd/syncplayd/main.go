// Command syncplayd wires the SyncPlay coordinator to the reference
// wsrelay transport over a chi router. It does not implement
// authentication, session registry, or library catalog lookups: those
// collaborators are stubbed to demonstrate wiring, not to run in
// production.
package main

import (
	"flag"
	"net/http"

	"github.com/go-chi/chi/v5"
	zlog "github.com/rs/zerolog/log"

	"github.com/deluan/syncplay"
	"github.com/deluan/syncplay/config"
	"github.com/deluan/syncplay/transport/wsrelay"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	addr := flag.String("addr", ":8096", "listen address")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("loading config")
	}

	hub := wsrelay.NewHub()
	manager := syncplay.NewSyncPlayManager(cfg, syncplay.RealClock, stubSessions{}, stubUsers{}, stubLibrary{}, hub)
	_ = manager

	r := chi.NewRouter()
	r.Mount("/", hub.Router())

	zlog.Info().Str("addr", *addr).Msg("syncplay listening")
	if err := http.ListenAndServe(*addr, r); err != nil {
		zlog.Fatal().Err(err).Msg("server exited")
	}
}
