package command

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"caffonia/internal/session"
)

type ShuffleCommand struct {
	Deps *Deps
}

func (c *ShuffleCommand) Name() string        { return "shuffle" }
func (c *ShuffleCommand) Description() string { return "Toggle shuffled playback" }
func (c *ShuffleCommand) Category() string    { return "🎚️ Modes" }

func (c *ShuffleCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *ShuffleCommand) Run(ctx *Context) error {
	sess, err := liveSession(ctx)
	if sess == nil {
		return err
	}
	on, err := sess.ToggleShuffle()
	if err != nil {
		return err
	}
	if on {
		return ctx.Reply("🔀 Shuffle on.")
	}
	return ctx.Reply("➡️ Shuffle off.")
}

// LoopCommand sets the loop mode; without an argument it cycles
// off, song, queue.
type LoopCommand struct {
	Deps *Deps
}

func (c *LoopCommand) Name() string        { return "loop" }
func (c *LoopCommand) Description() string { return "Set or cycle the loop mode" }
func (c *LoopCommand) Category() string    { return "🎚️ Modes" }

func (c *LoopCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "mode",
				Description: "Loop mode",
				Required:    false,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "off", Value: "off"},
					{Name: "song", Value: "song"},
					{Name: "queue", Value: "queue"},
				},
			},
		},
	}
}

func (c *LoopCommand) Run(ctx *Context) error {
	sess, err := liveSession(ctx)
	if sess == nil {
		return err
	}

	if arg := ctx.StringOption("mode"); arg != "" {
		mode, ok := session.ParseLoopMode(arg)
		if !ok {
			return ctx.Reply("🎵 Unknown loop mode.")
		}
		if err := sess.SetLoop(mode); err != nil {
			return err
		}
		return ctx.Reply(fmt.Sprintf("🔁 Loop: %s.", mode))
	}

	mode, err := sess.CycleLoop()
	if err != nil {
		return err
	}
	return ctx.Reply(fmt.Sprintf("🔁 Loop: %s.", mode))
}

type AutoplayCommand struct {
	Deps *Deps
}

func (c *AutoplayCommand) Name() string        { return "autoplay" }
func (c *AutoplayCommand) Description() string { return "Toggle autoplay when the queue runs dry" }
func (c *AutoplayCommand) Category() string    { return "🎚️ Modes" }

func (c *AutoplayCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *AutoplayCommand) Run(ctx *Context) error {
	sess, err := liveSession(ctx)
	if sess == nil {
		return err
	}
	on, err := sess.ToggleAutoplay()
	if err != nil {
		return err
	}
	if on {
		return ctx.Reply("📻 Autoplay on.")
	}
	return ctx.Reply("📻 Autoplay off.")
}

type QualityCommand struct {
	Deps *Deps
}

func (c *QualityCommand) Name() string        { return "quality" }
func (c *QualityCommand) Description() string { return "Set the audio quality for upcoming songs" }
func (c *QualityCommand) Category() string    { return "🎚️ Modes" }

func (c *QualityCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "level",
				Description: "Quality level",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "auto", Value: "auto"},
					{Name: "high", Value: "high"},
					{Name: "low", Value: "low"},
				},
			},
		},
	}
}

func (c *QualityCommand) Run(ctx *Context) error {
	sess, err := liveSession(ctx)
	if sess == nil {
		return err
	}
	level, ok := session.ParseQuality(ctx.StringOption("level"))
	if !ok {
		return ctx.Reply("🎵 Unknown quality level.")
	}
	if err := sess.SetQuality(level); err != nil {
		return err
	}
	return ctx.Reply(fmt.Sprintf("🎚️ Quality: %s.", level))
}
