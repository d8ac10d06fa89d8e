package command

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"caffonia/internal/session"
)

// liveSession fetches the guild's running session or replies that there is
// none. A nil return with nil error means the reply was already sent.
func liveSession(ctx *Context) (*session.Session, error) {
	sess, ok := ctx.Deps.Sessions.Get(ctx.GuildID())
	if !ok {
		return nil, ctx.Reply("🎵 Nothing is playing.")
	}
	return sess, nil
}

type PauseCommand struct {
	Deps *Deps
}

func (c *PauseCommand) Name() string        { return "pause" }
func (c *PauseCommand) Description() string { return "Pause playback" }
func (c *PauseCommand) Category() string    { return "🎵 Playback" }

func (c *PauseCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *PauseCommand) Run(ctx *Context) error {
	sess, err := liveSession(ctx)
	if sess == nil {
		return err
	}
	if err := sess.Pause(); err != nil {
		return err
	}
	return ctx.Reply("⏸️ Paused.")
}

type ResumeCommand struct {
	Deps *Deps
}

func (c *ResumeCommand) Name() string        { return "resume" }
func (c *ResumeCommand) Description() string { return "Resume playback" }
func (c *ResumeCommand) Category() string    { return "🎵 Playback" }

func (c *ResumeCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *ResumeCommand) Run(ctx *Context) error {
	sess, err := liveSession(ctx)
	if sess == nil {
		return err
	}
	if err := sess.Resume(); err != nil {
		return err
	}
	return ctx.Reply("▶️ Resumed.")
}

type SkipCommand struct {
	Deps *Deps
}

func (c *SkipCommand) Name() string        { return "skip" }
func (c *SkipCommand) Description() string { return "Skip the current song" }
func (c *SkipCommand) Category() string    { return "🎵 Playback" }

func (c *SkipCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *SkipCommand) Run(ctx *Context) error {
	sess, err := liveSession(ctx)
	if sess == nil {
		return err
	}
	if err := sess.Skip(); err != nil {
		return err
	}
	return ctx.Reply("⏭️ Skipped.")
}

type StopCommand struct {
	Deps *Deps
}

func (c *StopCommand) Name() string        { return "stop" }
func (c *StopCommand) Description() string { return "Stop playback and clear the queue" }
func (c *StopCommand) Category() string    { return "🎵 Playback" }

func (c *StopCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *StopCommand) Run(ctx *Context) error {
	sess, err := liveSession(ctx)
	if sess == nil {
		return err
	}
	ctx.Deps.Timers.Cancel(ctx.GuildID())
	if err := sess.Stop(); err != nil {
		return err
	}
	return ctx.Reply("⏹️ Stopped, queue cleared.")
}

type VolumeCommand struct {
	Deps *Deps
}

func (c *VolumeCommand) Name() string        { return "volume" }
func (c *VolumeCommand) Description() string { return "Set the playback volume (0-100)" }
func (c *VolumeCommand) Category() string    { return "🎵 Playback" }

func (c *VolumeCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "percent",
				Description: "Volume percentage",
				Required:    true,
			},
		},
	}
}

func (c *VolumeCommand) Run(ctx *Context) error {
	sess, err := liveSession(ctx)
	if sess == nil {
		return err
	}

	percent, _ := ctx.IntOption("percent")
	applied, err := sess.SetVolume(int(percent))
	if err != nil {
		return err
	}
	return ctx.Reply(fmt.Sprintf("🔊 Volume set to %d%%.", applied))
}
