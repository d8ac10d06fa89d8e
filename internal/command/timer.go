package command

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// SleepCommand stops the guild's playback after a delay. Starting a new
// sleep timer replaces the previous one.
type SleepCommand struct {
	Deps *Deps
}

func (c *SleepCommand) Name() string        { return "sleep" }
func (c *SleepCommand) Description() string { return "Stop playback after a delay" }
func (c *SleepCommand) Category() string    { return "⏲️ Timers" }

func (c *SleepCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "start",
				Description: "Start a sleep timer",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "minutes",
						Description: "Minutes until playback stops",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "stop",
				Description: "Cancel the sleep timer",
			},
		},
	}
}

func (c *SleepCommand) Run(ctx *Context) error {
	switch ctx.Subcommand() {
	case "start":
		minutes, _ := ctx.IntOption("minutes")
		if minutes < 1 {
			return ctx.Reply("🎵 Give me at least one minute.")
		}
		c.Deps.Timers.StartSleep(ctx.GuildID(), ctx.ChannelID(), time.Duration(minutes)*time.Minute)
		return ctx.Reply(fmt.Sprintf("💤 Playback stops in %d minutes.", minutes))
	case "stop":
		if !c.Deps.Timers.Active("sleep", ctx.GuildID()) {
			return ctx.Reply("💤 No sleep timer running.")
		}
		c.Deps.Timers.CancelKind("sleep", ctx.GuildID())
		return ctx.Reply("💤 Sleep timer cancelled.")
	}
	return ctx.Reply("🎵 Unknown sleep action.")
}

// PomodoroCommand alternates work and rest periods, pausing the music
// during rests.
type PomodoroCommand struct {
	Deps *Deps
}

func (c *PomodoroCommand) Name() string        { return "pomodoro" }
func (c *PomodoroCommand) Description() string { return "Run work/rest cycles with music" }
func (c *PomodoroCommand) Category() string    { return "⏲️ Timers" }

func (c *PomodoroCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "start",
				Description: "Start pomodoro cycles",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "cycles",
						Description: "Number of work/rest cycles (default 4)",
						Required:    false,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "stop",
				Description: "Cancel the pomodoro session",
			},
		},
	}
}

func (c *PomodoroCommand) Run(ctx *Context) error {
	switch ctx.Subcommand() {
	case "start":
		cycles, ok := ctx.IntOption("cycles")
		if !ok {
			cycles = 4
		}
		c.Deps.Timers.StartPomodoro(ctx.GuildID(), ctx.ChannelID(), int(cycles))
		return ctx.Reply(fmt.Sprintf("🍅 Pomodoro started: %d cycles.", cycles))
	case "stop":
		if !c.Deps.Timers.Active("pomodoro", ctx.GuildID()) {
			return ctx.Reply("🍅 No pomodoro session running.")
		}
		c.Deps.Timers.CancelKind("pomodoro", ctx.GuildID())
		return ctx.Reply("🍅 Pomodoro cancelled.")
	}
	return ctx.Reply("🎵 Unknown pomodoro action.")
}
