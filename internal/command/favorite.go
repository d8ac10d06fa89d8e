package command

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/bwmarrin/discordgo"

	"caffonia/internal/song"
)

// FavCommand manages a user's favorites. Playing favorites queues a
// shuffled copy, the stored order is never touched.
type FavCommand struct {
	Deps *Deps
}

func (c *FavCommand) Name() string        { return "fav" }
func (c *FavCommand) Description() string { return "Manage your favorite songs" }
func (c *FavCommand) Category() string    { return "📜 Collections" }

func (c *FavCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Add the current song to your favorites",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "play",
				Description: "Queue your favorites, shuffled",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List your favorites",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove",
				Description: "Remove a favorite by position",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "position",
						Description: "Position as shown by /fav list",
						Required:    true,
					},
				},
			},
		},
	}
}

func (c *FavCommand) Run(ctx *Context) error {
	switch ctx.Subcommand() {
	case "add":
		return c.add(ctx)
	case "play":
		return c.play(ctx)
	case "list":
		return c.list(ctx)
	case "remove":
		return c.remove(ctx)
	}
	return ctx.Reply("🎵 Unknown favorites action.")
}

func (c *FavCommand) add(ctx *Context) error {
	sess, err := liveSession(ctx)
	if sess == nil {
		return err
	}
	st, err := sess.Snapshot()
	if err != nil {
		return err
	}
	if st.Current == nil {
		return ctx.Reply("🎵 Nothing is playing.")
	}

	if err := c.Deps.Favorites.Add(ctx.UserID(), *st.Current); err != nil {
		return err
	}
	return ctx.Reply(fmt.Sprintf("⭐ **%s** added to your favorites.", st.Current.Title))
}

func (c *FavCommand) play(ctx *Context) error {
	voiceCh, err := ctx.UserVoiceChannel()
	if err != nil {
		return err
	}
	favs, err := c.Deps.Favorites.List(ctx.UserID())
	if err != nil {
		return err
	}
	if len(favs) == 0 {
		return ctx.Reply("⭐ You have no favorites yet.")
	}

	songs := make([]song.Song, len(favs))
	for i, sng := range favs {
		songs[i] = sng.WithRequester(ctx.UserID())
	}
	rand.Shuffle(len(songs), func(i, j int) { songs[i], songs[j] = songs[j], songs[i] })

	sess := ctx.Deps.Sessions.GetOrCreate(ctx.GuildID(), voiceCh, ctx.ChannelID())
	added, err := sess.Enqueue(songs...)
	if err != nil && added == 0 {
		return err
	}
	return ctx.Reply(fmt.Sprintf("⭐ Queued %d favorites, shuffled.", added))
}

func (c *FavCommand) list(ctx *Context) error {
	favs, err := c.Deps.Favorites.List(ctx.UserID())
	if err != nil {
		return err
	}
	if len(favs) == 0 {
		return ctx.Reply("⭐ You have no favorites yet.")
	}

	var b strings.Builder
	for i, sng := range favs {
		fmt.Fprintf(&b, "%d. **%s** by %s\n", i+1, sng.Title, sng.Artist)
	}
	return ctx.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "Your favorites",
		Description: b.String(),
	})
}

func (c *FavCommand) remove(ctx *Context) error {
	position, _ := ctx.IntOption("position")

	favs, err := c.Deps.Favorites.List(ctx.UserID())
	if err != nil {
		return err
	}
	if position < 1 || int(position) > len(favs) {
		return ctx.Reply("🎵 No favorite at that position.")
	}

	target := favs[position-1]
	if err := c.Deps.Favorites.Remove(ctx.UserID(), target.SourceURL); err != nil {
		return err
	}
	return ctx.Reply(fmt.Sprintf("⭐ Removed **%s** from your favorites.", target.Title))
}
