package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"caffonia/internal/config"
	"caffonia/internal/discord"
	"caffonia/internal/logging"
	"caffonia/internal/resolver"
	"caffonia/internal/storage"
	v "caffonia/internal/version"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New(logging.Config{Level: "info", Format: "text"})
		bootLog.Fatal().Err(err).Msg("load configuration")
	}

	log := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	log.Info().Str("version", v.Version).Msgf("starting %s", v.AppName)

	playlists, err := storage.NewPlaylistStore(cfg.PlaylistStorePath, cfg.MaxPlaylistSize)
	if err != nil {
		log.Fatal().Err(err).Msg("open playlist store")
	}
	defer playlists.Close()

	favorites, err := storage.NewFavoriteStore(cfg.FavoriteStorePath)
	if err != nil {
		log.Fatal().Err(err).Msg("open favorite store")
	}
	defer favorites.Close()

	stats, err := storage.NewStatsStore(cfg.StatsStorePath)
	if err != nil {
		log.Fatal().Err(err).Msg("open stats store")
	}
	defer stats.Close()

	youTube := resolver.NewYouTube(log)
	var catalog resolver.Provider
	if cfg.SpotifyEnabled() {
		catalogProvider, err := resolver.NewSpotify(ctx, cfg.SpotifyClientID, cfg.SpotifyClientSecret, youTube, log)
		if err != nil {
			log.Warn().Err(err).Msg("spotify provider disabled")
		} else {
			catalog = catalogProvider
		}
	}
	res := resolver.New(youTube, catalog, log)

	bot, err := discord.NewBot(discord.Options{
		Cfg:       cfg,
		Log:       log,
		Resolver:  res,
		Playlists: playlists,
		Favorites: favorites,
		Stats:     stats,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build bot")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- bot.Run(ctx)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("bot exited with error")
		}
		cancel()
	}

	log.Info().Msg("exited cleanly")
}
