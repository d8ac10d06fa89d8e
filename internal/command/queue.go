package command

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const queuePreviewLen = 10

type QueueCommand struct {
	Deps *Deps
}

func (c *QueueCommand) Name() string        { return "queue" }
func (c *QueueCommand) Description() string { return "Show the playback queue" }
func (c *QueueCommand) Category() string    { return "🎵 Playback" }

func (c *QueueCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *QueueCommand) Run(ctx *Context) error {
	sess, err := liveSession(ctx)
	if sess == nil {
		return err
	}
	st, err := sess.Snapshot()
	if err != nil {
		return err
	}

	var b strings.Builder
	if st.Current != nil {
		fmt.Fprintf(&b, "▶️ **%s** by %s (%s)\n\n", st.Current.Title, st.Current.Artist, st.Current.DurationLabel)
	}
	if len(st.Pending) == 0 {
		b.WriteString("The queue is empty.")
	}
	for i, sng := range st.Pending {
		if i == queuePreviewLen {
			fmt.Fprintf(&b, "… and %d more", len(st.Pending)-queuePreviewLen)
			break
		}
		fmt.Fprintf(&b, "%d. **%s** by %s (%s)\n", i+1, sng.Title, sng.Artist, sng.DurationLabel)
	}

	return ctx.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Queue — %d pending", len(st.Pending)),
		Description: b.String(),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("loop: %s | shuffle: %t | autoplay: %t | volume: %d%%",
				st.Mode.Loop, st.Mode.Shuffle, st.Mode.Autoplay, st.Volume),
		},
	})
}

type NowPlayingCommand struct {
	Deps *Deps
}

func (c *NowPlayingCommand) Name() string        { return "nowplaying" }
func (c *NowPlayingCommand) Description() string { return "Show the current song" }
func (c *NowPlayingCommand) Category() string    { return "🎵 Playback" }

func (c *NowPlayingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *NowPlayingCommand) Run(ctx *Context) error {
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

	embed := &discordgo.MessageEmbed{
		Title:       st.Current.Title,
		Description: fmt.Sprintf("by %s (%s)", st.Current.Artist, st.Current.DurationLabel),
		URL:         st.Current.SourceURL,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "State", Value: st.State.String(), Inline: true},
			{Name: "Volume", Value: fmt.Sprintf("%d%%", st.Volume), Inline: true},
			{Name: "Requested by", Value: "<@" + st.Current.RequestedBy + ">", Inline: true},
		},
	}
	if st.Current.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: st.Current.ThumbnailURL}
	}
	if st.Mood != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Mood", Value: st.Mood, Inline: true,
		})
	}
	return ctx.ReplyEmbed(embed)
}
