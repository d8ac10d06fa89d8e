package command

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// StatsCommand shows the caller's listening stats.
type StatsCommand struct {
	Deps *Deps
}

func (c *StatsCommand) Name() string        { return "stats" }
func (c *StatsCommand) Description() string { return "Show your listening stats" }
func (c *StatsCommand) Category() string    { return "📜 Collections" }

func (c *StatsCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *StatsCommand) Run(ctx *Context) error {
	stats, ok, err := c.Deps.Stats.Get(ctx.UserID())
	if err != nil {
		return err
	}
	if !ok || stats.TotalPlayed == 0 {
		return ctx.Reply("📊 Nothing played for you yet.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Songs played for you: **%d**\n\n", stats.TotalPlayed)
	if len(stats.Recent) > 0 {
		b.WriteString("Recently played:\n")
		for i, sng := range stats.Recent {
			fmt.Fprintf(&b, "%d. **%s** by %s\n", i+1, sng.Title, sng.Artist)
		}
	}
	return ctx.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "Listening stats",
		Description: b.String(),
	})
}
