package command

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"caffonia/internal/song"
)

// PlayCommand resolves a query against the video provider and queues the
// result in the caller's voice channel.
type PlayCommand struct {
	Deps *Deps
}

func (c *PlayCommand) Name() string        { return "play" }
func (c *PlayCommand) Description() string { return "Play a song by link or search query" }
func (c *PlayCommand) Category() string    { return "🎵 Playback" }

func (c *PlayCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "query",
				Description: "Link or song name",
				Required:    true,
			},
		},
	}
}

func (c *PlayCommand) Run(ctx *Context) error {
	return queueResolved(ctx, ctx.StringOption("query"), song.KindVideo)
}

// PlaySpotifyCommand resolves through the streaming catalog instead; results
// carry catalog metadata but play through the video provider.
type PlaySpotifyCommand struct {
	Deps *Deps
}

func (c *PlaySpotifyCommand) Name() string        { return "playspotify" }
func (c *PlaySpotifyCommand) Description() string { return "Play a song found via Spotify" }
func (c *PlaySpotifyCommand) Category() string    { return "🎵 Playback" }

func (c *PlaySpotifyCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "query",
				Description: "Track name or artist",
				Required:    true,
			},
		},
	}
}

func (c *PlaySpotifyCommand) Run(ctx *Context) error {
	return queueResolved(ctx, ctx.StringOption("query"), song.KindCatalog)
}

// queueResolved is the shared play path: defer, resolve, get or create the
// guild session and enqueue.
func queueResolved(ctx *Context, query string, kind song.Kind) error {
	if query == "" {
		return ctx.Reply("🎵 Give me something to play.")
	}

	voiceCh, err := ctx.UserVoiceChannel()
	if err != nil {
		return err
	}

	if err := ctx.Defer(); err != nil {
		return err
	}

	sng, err := ctx.Deps.Resolver.Resolve(ctx.Ctx, query, kind)
	if err != nil {
		return err
	}
	sng = sng.WithRequester(ctx.UserID())

	sess := ctx.Deps.Sessions.GetOrCreate(ctx.GuildID(), voiceCh, ctx.ChannelID())
	if _, err := sess.Enqueue(sng); err != nil {
		return err
	}

	return ctx.Followup(fmt.Sprintf("🎵 Queued **%s** by %s.", sng.Title, sng.Artist))
}
