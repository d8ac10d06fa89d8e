package command

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"caffonia/internal/session"
	"caffonia/internal/song"
)

// radioStations is the fixed 24/7 station table.
var radioStations = map[string]song.Song{
	"lofi": {
		Title:            "Lofi Girl Radio",
		Artist:           "Lofi Girl",
		SourceURL:        "https://www.youtube.com/watch?v=jfKfPfyJRdk",
		DurationLabel:    "live",
		SourceKind:       song.KindVideo,
		ContinuousStream: true,
	},
	"gaming": {
		Title:            "Gaming Radio",
		Artist:           "24/7 stream",
		SourceURL:        "https://www.youtube.com/watch?v=4xDzrJKXOOY",
		DurationLabel:    "live",
		SourceKind:       song.KindVideo,
		ContinuousStream: true,
	},
	"work": {
		Title:            "Work Beats Radio",
		Artist:           "24/7 stream",
		SourceURL:        "https://www.youtube.com/watch?v=5qap5aO4i9A",
		DurationLabel:    "live",
		SourceKind:       song.KindVideo,
		ContinuousStream: true,
	},
	"chill": {
		Title:            "Chill Radio",
		Artist:           "24/7 stream",
		SourceURL:        "https://www.youtube.com/watch?v=DWcJFNfaw9c",
		DurationLabel:    "live",
		SourceKind:       song.KindVideo,
		ContinuousStream: true,
	},
}

// RadioCommand tunes the guild into a 24/7 station. Starting replaces the
// current session with a single looping live stream; stopping clears the
// loop and skips off the stream.
type RadioCommand struct {
	Deps *Deps
}

func (c *RadioCommand) Name() string        { return "radio" }
func (c *RadioCommand) Description() string { return "Tune into a 24/7 radio station" }
func (c *RadioCommand) Category() string    { return "🎵 Playback" }

func (c *RadioCommand) Definition() *discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(radioStations))
	for _, station := range []string{"lofi", "gaming", "work", "chill"} {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: station, Value: station})
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "start",
				Description: "Start a station",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "station",
						Description: "Station to tune into",
						Required:    true,
						Choices:     choices,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "stop",
				Description: "Stop the radio",
			},
		},
	}
}

func (c *RadioCommand) Run(ctx *Context) error {
	switch ctx.Subcommand() {
	case "start":
		return c.start(ctx)
	case "stop":
		return c.stop(ctx)
	}
	return ctx.Reply("🎵 Unknown radio action.")
}

func (c *RadioCommand) start(ctx *Context) error {
	station, ok := radioStations[ctx.StringOption("station")]
	if !ok {
		return ctx.Reply("📻 Unknown station.")
	}

	voiceCh, err := ctx.UserVoiceChannel()
	if err != nil {
		return err
	}

	// A station wants a clean queue, so an existing session is stopped
	// and replaced.
	if old, ok := ctx.Deps.Sessions.Get(ctx.GuildID()); ok {
		_ = old.Stop()
		<-old.Done()
	}

	sess := ctx.Deps.Sessions.GetOrCreate(ctx.GuildID(), voiceCh, ctx.ChannelID())
	if err := sess.SetLoop(session.LoopSong); err != nil {
		return err
	}
	if _, err := sess.Enqueue(station.WithRequester(ctx.UserID())); err != nil {
		return err
	}
	return ctx.Reply(fmt.Sprintf("📻 Tuned into **%s**.", station.Title))
}

func (c *RadioCommand) stop(ctx *Context) error {
	sess, err := liveSession(ctx)
	if sess == nil {
		return err
	}
	if err := sess.SetLoop(session.LoopOff); err != nil {
		return err
	}
	if err := sess.Skip(); err != nil {
		return err
	}
	return ctx.Reply("📻 Radio stopped.")
}
