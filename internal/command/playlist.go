package command

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"caffonia/internal/song"
	"caffonia/internal/storage"
)

// PlaylistCommand manages per-user named playlists.
type PlaylistCommand struct {
	Deps *Deps
}

func (c *PlaylistCommand) Name() string        { return "playlist" }
func (c *PlaylistCommand) Description() string { return "Manage your playlists" }
func (c *PlaylistCommand) Category() string    { return "📜 Collections" }

func (c *PlaylistCommand) Definition() *discordgo.ApplicationCommand {
	nameOpt := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "name",
		Description: "Playlist name",
		Required:    true,
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "create",
				Description: "Create an empty playlist",
				Options:     []*discordgo.ApplicationCommandOption{nameOpt},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Add a song to a playlist",
				Options: []*discordgo.ApplicationCommandOption{
					nameOpt,
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "query",
						Description: "Link or song name",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove",
				Description: "Remove a song from a playlist by position",
				Options: []*discordgo.ApplicationCommandOption{
					nameOpt,
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "position",
						Description: "Position as shown by /playlist list",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "play",
				Description: "Queue a whole playlist",
				Options:     []*discordgo.ApplicationCommandOption{nameOpt},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List your playlists",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "delete",
				Description: "Delete a playlist",
				Options:     []*discordgo.ApplicationCommandOption{nameOpt},
			},
		},
	}
}

func (c *PlaylistCommand) Run(ctx *Context) error {
	switch ctx.Subcommand() {
	case "create":
		return c.create(ctx)
	case "add":
		return c.add(ctx)
	case "remove":
		return c.remove(ctx)
	case "play":
		return c.play(ctx)
	case "list":
		return c.list(ctx)
	case "delete":
		return c.delete(ctx)
	}
	return ctx.Reply("🎵 Unknown playlist action.")
}

func (c *PlaylistCommand) create(ctx *Context) error {
	name := ctx.StringOption("name")
	if err := c.Deps.Playlists.Create(ctx.UserID(), name); err != nil {
		return err
	}
	return ctx.Reply(fmt.Sprintf("📜 Playlist **%s** created.", name))
}

func (c *PlaylistCommand) add(ctx *Context) error {
	name := ctx.StringOption("name")
	query := ctx.StringOption("query")

	if err := ctx.Defer(); err != nil {
		return err
	}
	sng, err := c.Deps.Resolver.Resolve(ctx.Ctx, query, song.KindVideo)
	if err != nil {
		return err
	}
	if err := c.Deps.Playlists.AddSong(ctx.UserID(), name, sng); err != nil {
		return err
	}
	return ctx.Followup(fmt.Sprintf("📜 Added **%s** to **%s**.", sng.Title, name))
}

func (c *PlaylistCommand) remove(ctx *Context) error {
	name := ctx.StringOption("name")
	position, _ := ctx.IntOption("position")

	pl, err := c.Deps.Playlists.Get(ctx.UserID(), name)
	if err != nil {
		return err
	}
	if position < 1 || int(position) > len(pl.Songs) {
		return ctx.Reply("🎵 No song at that position.")
	}

	target := pl.Songs[position-1]
	if err := c.Deps.Playlists.RemoveSong(ctx.UserID(), name, target.SourceURL); err != nil {
		return err
	}
	return ctx.Reply(fmt.Sprintf("📜 Removed **%s** from **%s**.", target.Title, name))
}

func (c *PlaylistCommand) play(ctx *Context) error {
	name := ctx.StringOption("name")

	voiceCh, err := ctx.UserVoiceChannel()
	if err != nil {
		return err
	}
	pl, err := c.Deps.Playlists.Get(ctx.UserID(), name)
	if err != nil {
		return err
	}
	if len(pl.Songs) == 0 {
		return storage.ErrPlaylistEmpty
	}

	songs := make([]song.Song, len(pl.Songs))
	for i, sng := range pl.Songs {
		songs[i] = sng.WithRequester(ctx.UserID())
	}

	sess := ctx.Deps.Sessions.GetOrCreate(ctx.GuildID(), voiceCh, ctx.ChannelID())
	added, err := sess.Enqueue(songs...)
	if err != nil && added == 0 {
		return err
	}
	return ctx.Reply(fmt.Sprintf("📜 Queued %d songs from **%s**.", added, name))
}

func (c *PlaylistCommand) list(ctx *Context) error {
	lists, err := c.Deps.Playlists.List(ctx.UserID())
	if err != nil {
		return err
	}
	if len(lists) == 0 {
		return ctx.Reply("📜 You have no playlists yet.")
	}

	var b strings.Builder
	for _, pl := range lists {
		fmt.Fprintf(&b, "**%s** — %d songs\n", pl.Name, len(pl.Songs))
		for i, sng := range pl.Songs {
			fmt.Fprintf(&b, "  %d. %s by %s\n", i+1, sng.Title, sng.Artist)
		}
	}
	return ctx.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "Your playlists",
		Description: b.String(),
	})
}

func (c *PlaylistCommand) delete(ctx *Context) error {
	name := ctx.StringOption("name")
	if err := c.Deps.Playlists.Delete(ctx.UserID(), name); err != nil {
		return err
	}
	return ctx.Reply(fmt.Sprintf("📜 Playlist **%s** deleted.", name))
}
