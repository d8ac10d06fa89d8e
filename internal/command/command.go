// Package command holds the slash command surface: a registry of handlers,
// the middleware that wraps them and the interaction context they run with.
package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"caffonia/internal/config"
	"caffonia/internal/resolver"
	"caffonia/internal/session"
	"caffonia/internal/storage"
	"caffonia/internal/timer"
)

// Deps bundles everything a handler may touch. The bot builds one Deps and
// shares it across all commands.
type Deps struct {
	Cfg       *config.Config
	Log       zerolog.Logger
	Sessions  *session.Registry
	Resolver  *resolver.Resolver
	Playlists *storage.PlaylistStore
	Favorites *storage.FavoriteStore
	Stats     *storage.StatsStore
	Timers    *timer.Manager
}

// Command is one slash command.
type Command interface {
	Name() string
	Description() string
	Category() string
	Definition() *discordgo.ApplicationCommand
	Run(ctx *Context) error
}

// ErrNotInVoice rejects playback commands from users outside voice channels.
var ErrNotInVoice = errors.New("user not in a voice channel")

// Context carries one interaction through a handler.
type Context struct {
	Ctx     context.Context
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Deps    *Deps

	responded bool
}

func (c *Context) GuildID() string   { return c.Event.GuildID }
func (c *Context) ChannelID() string { return c.Event.ChannelID }

func (c *Context) UserID() string {
	if c.Event.Member != nil && c.Event.Member.User != nil {
		return c.Event.Member.User.ID
	}
	if c.Event.User != nil {
		return c.Event.User.ID
	}
	return ""
}

// Subcommand returns the invoked subcommand name, or "" for flat commands.
func (c *Context) Subcommand() string {
	opts := c.Event.ApplicationCommandData().Options
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		return opts[0].Name
	}
	return ""
}

func (c *Context) options() []*discordgo.ApplicationCommandInteractionDataOption {
	opts := c.Event.ApplicationCommandData().Options
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		return opts[0].Options
	}
	return opts
}

func (c *Context) StringOption(name string) string {
	for _, o := range c.options() {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionString {
			return o.StringValue()
		}
	}
	return ""
}

func (c *Context) IntOption(name string) (int64, bool) {
	for _, o := range c.options() {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionInteger {
			return o.IntValue(), true
		}
	}
	return 0, false
}

// UserVoiceChannel finds the voice channel the invoking user sits in.
func (c *Context) UserVoiceChannel() (string, error) {
	guild, err := c.Session.State.Guild(c.GuildID())
	if err != nil {
		return "", fmt.Errorf("guild state: %w", err)
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == c.UserID() {
			return vs.ChannelID, nil
		}
	}
	return "", ErrNotInVoice
}

func (c *Context) Reply(content string) error {
	c.responded = true
	return c.Session.InteractionRespond(c.Event.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

func (c *Context) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	c.responded = true
	return c.Session.InteractionRespond(c.Event.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}},
	})
}

// Defer acknowledges the interaction so slow work can follow up later.
func (c *Context) Defer() error {
	c.responded = true
	return c.Session.InteractionRespond(c.Event.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func (c *Context) Followup(content string) error {
	_, err := c.Session.FollowupMessageCreate(c.Event.Interaction, true, &discordgo.WebhookParams{
		Content: content,
	})
	return err
}

func (c *Context) FollowupEmbed(embed *discordgo.MessageEmbed) error {
	_, err := c.Session.FollowupMessageCreate(c.Event.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	return err
}

// ReplyError converts a handler error into a user-facing reply. Errors never
// escape the dispatch boundary unexplained.
func (c *Context) ReplyError(err error) {
	msg := userMessage(err)
	if c.responded {
		_ = c.Followup(msg)
		return
	}
	_ = c.Reply(msg)
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotInVoice):
		return "🎵 Join a voice channel first."
	case errors.Is(err, session.ErrQueueFull):
		return "🎵 The queue is full."
	case errors.Is(err, session.ErrPreconditionFailed):
		return "🎵 Can't do that right now."
	case errors.Is(err, session.ErrTornDown):
		return "🎵 Nothing is playing."
	case errors.Is(err, session.ErrFatalSession):
		return "🎵 Playback kept failing and was stopped."
	case errors.Is(err, resolver.ErrNotFound):
		return "🎵 No results found."
	case errors.Is(err, resolver.ErrProviderUnavailable):
		return "🎵 That source is not available."
	case errors.Is(err, storage.ErrPlaylistExists):
		return "🎵 A playlist with that name already exists."
	case errors.Is(err, storage.ErrPlaylistNotFound):
		return "🎵 No such playlist."
	case errors.Is(err, storage.ErrPlaylistFull):
		return "🎵 That playlist is full."
	case errors.Is(err, storage.ErrPlaylistEmpty):
		return "🎵 That playlist is empty."
	case errors.Is(err, storage.ErrSongNotInList):
		return "🎵 That song is not in the playlist."
	case errors.Is(err, storage.ErrAlreadyFavorite):
		return "🎵 Already in your favorites."
	case errors.Is(err, storage.ErrFavoriteMissing):
		return "🎵 That song is not in your favorites."
	default:
		return fmt.Sprintf("🎵 Error: %v", err)
	}
}
