// Package discord wires the gateway to the playback core: interaction
// dispatch, voice streaming and the session observers that post playback
// notices.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"caffonia/internal/command"
	"caffonia/internal/config"
	"caffonia/internal/resolver"
	"caffonia/internal/session"
	"caffonia/internal/storage"
	"caffonia/internal/timer"
	"caffonia/internal/version"
)

// Options carries the collaborators the bot is built from.
type Options struct {
	Cfg       *config.Config
	Log       zerolog.Logger
	Resolver  *resolver.Resolver
	Playlists *storage.PlaylistStore
	Favorites *storage.FavoriteStore
	Stats     *storage.StatsStore
}

// Bot owns the gateway session and everything hanging off it.
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	log      zerolog.Logger
	sessions *session.Registry
	timers   *timer.Manager
	commands *command.Registry
	deps     *command.Deps
	stats    *storage.StatsStore

	runCtx context.Context
}

// NewBot builds the gateway session, the per-guild session registry, the
// timers and the command set.
func NewBot(opts Options) (*Bot, error) {
	dg, err := discordgo.New("Bot " + opts.Cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("create gateway session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsAll

	b := &Bot{
		dg:    dg,
		cfg:   opts.Cfg,
		log:   opts.Log,
		stats: opts.Stats,
	}

	connector := NewVoiceConnector(dg, opts.Log)
	b.sessions = session.NewRegistry(session.Settings{
		MaxQueueSize:  opts.Cfg.MaxQueueSize,
		HistorySize:   opts.Cfg.HistorySize,
		DefaultVolume: opts.Cfg.DefaultVolume,
		GuardBurst:    opts.Cfg.GuardBurst,
		GuardWindow:   opts.Cfg.GuardWindow,
	}, connector, opts.Resolver, opts.Log)
	b.sessions.OnCreate(func(s *session.Session) {
		go b.watchSession(s)
	})

	b.timers = timer.NewManager(b.sessions, b.notifyChannel, opts.Log)

	b.deps = &command.Deps{
		Cfg:       opts.Cfg,
		Log:       opts.Log,
		Sessions:  b.sessions,
		Resolver:  opts.Resolver,
		Playlists: opts.Playlists,
		Favorites: opts.Favorites,
		Stats:     opts.Stats,
		Timers:    b.timers,
	}
	b.commands = command.NewRegistry(b.deps)

	return b, nil
}

// Run opens the gateway and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.runCtx = ctx

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onInteractionCreate)
	b.dg.AddHandler(b.onVoiceStateUpdate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("open gateway session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, cleaning up")
	b.timers.CancelAll()
	b.sessions.StopAll()
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		b.registerCommands(g.ID)
	}
	b.log.Info().
		Str("bot", s.State.User.Username).
		Str("version", version.Version).
		Int("guilds", len(r.Guilds)).
		Msgf("%s is running", version.AppName)
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.log.Info().Str("guild_id", g.ID).Str("guild", g.Name).Msg("joined guild")
	b.registerCommands(g.ID)
}

func (b *Bot) registerCommands(guildID string) {
	appID := b.dg.State.User.ID
	if _, err := b.dg.ApplicationCommandBulkOverwrite(appID, guildID, b.commands.Definitions()); err != nil {
		b.log.Error().Err(err).Str("guild_id", guildID).Msg("register slash commands")
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	cmd, ok := b.commands.Get(name)
	if !ok {
		b.log.Warn().Str("command", name).Msg("unknown command")
		return
	}

	ctx := &command.Context{
		Ctx:     b.runCtx,
		Session: s,
		Event:   i,
		Deps:    b.deps,
	}
	if err := cmd.Run(ctx); err != nil {
		b.log.Error().Err(err).Str("command", name).Str("guild_id", i.GuildID).Msg("command failed")
		ctx.ReplyError(err)
	}
}

// onVoiceStateUpdate tears a session down once its voice channel has no
// human listeners left.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, vsu *discordgo.VoiceStateUpdate) {
	sess, ok := b.sessions.Get(vsu.GuildID)
	if !ok {
		return
	}

	guild, err := s.State.Guild(vsu.GuildID)
	if err != nil {
		return
	}

	humans := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != sess.VoiceChannelID() {
			continue
		}
		member, err := s.State.Member(vsu.GuildID, vs.UserID)
		if err != nil || member.User == nil || member.User.Bot {
			continue
		}
		humans++
	}

	if humans == 0 {
		b.log.Info().Str("guild_id", vsu.GuildID).Msg("voice channel empty, stopping session")
		sess.OnVoiceChannelEmpty()
	}
}

func (b *Bot) notifyChannel(channelID, message string) {
	if _, err := b.dg.ChannelMessageSend(channelID, message); err != nil {
		b.log.Warn().Err(err).Str("channel_id", channelID).Msg("send notice")
	}
}
