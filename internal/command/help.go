package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// HelpCommand lists every registered command grouped by category.
type HelpCommand struct {
	Deps *Deps
	All  func() []Command
}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "List available commands" }
func (c *HelpCommand) Category() string    { return "ℹ️ Info" }

func (c *HelpCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *HelpCommand) Run(ctx *Context) error {
	byCategory := make(map[string][]Command)
	for _, cmd := range c.All() {
		byCategory[cmd.Category()] = append(byCategory[cmd.Category()], cmd)
	}

	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var b strings.Builder
	for _, cat := range categories {
		fmt.Fprintf(&b, "**%s**\n", cat)
		cmds := byCategory[cat]
		sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })
		for _, cmd := range cmds {
			fmt.Fprintf(&b, "`/%s` — %s\n", cmd.Name(), cmd.Description())
		}
		b.WriteString("\n")
	}

	return ctx.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "Commands",
		Description: b.String(),
	})
}
