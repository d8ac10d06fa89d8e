package command

import (
	"fmt"
	"math/rand"

	"github.com/bwmarrin/discordgo"

	"caffonia/internal/song"
)

const moodBatchSize = 5

// moodSeeds maps a mood tag to the search queries it seeds from.
var moodSeeds = map[string][]string{
	"chill":   {"chill lofi mix", "relaxing acoustic songs", "calm indie playlist"},
	"focus":   {"deep focus music", "concentration instrumental mix", "study beats"},
	"gaming":  {"gaming music mix", "epic gaming playlist", "electronic gaming beats"},
	"party":   {"party hits mix", "dance party playlist", "edm party anthems"},
	"sleep":   {"sleep music", "ambient sleep sounds", "peaceful piano for sleep"},
	"workout": {"workout motivation mix", "gym playlist", "high energy running music"},
}

// MoodCommand seeds the queue with a batch of songs matching a mood tag
// and labels the session with it.
type MoodCommand struct {
	Deps *Deps
}

func (c *MoodCommand) Name() string        { return "mood" }
func (c *MoodCommand) Description() string { return "Queue a batch of songs for a mood" }
func (c *MoodCommand) Category() string    { return "🎚️ Modes" }

func (c *MoodCommand) Definition() *discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(moodSeeds))
	for _, tag := range []string{"chill", "focus", "gaming", "party", "sleep", "workout"} {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: tag, Value: tag})
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "tag",
				Description: "Mood to queue for",
				Required:    true,
				Choices:     choices,
			},
		},
	}
}

func (c *MoodCommand) Run(ctx *Context) error {
	tag := ctx.StringOption("tag")
	seeds, ok := moodSeeds[tag]
	if !ok {
		return ctx.Reply("🎵 Unknown mood.")
	}

	voiceCh, err := ctx.UserVoiceChannel()
	if err != nil {
		return err
	}
	if err := ctx.Defer(); err != nil {
		return err
	}

	query := seeds[rand.Intn(len(seeds))]
	songs, err := c.Deps.Resolver.ResolveN(ctx.Ctx, query, song.KindVideo, moodBatchSize)
	if err != nil {
		return err
	}
	for i := range songs {
		songs[i] = songs[i].WithRequester(ctx.UserID())
	}

	sess := ctx.Deps.Sessions.GetOrCreate(ctx.GuildID(), voiceCh, ctx.ChannelID())
	added, err := sess.Enqueue(songs...)
	if err != nil && added == 0 {
		return err
	}
	if err := sess.SetMood(tag); err != nil {
		return err
	}
	return ctx.Followup(fmt.Sprintf("🎭 Mood **%s**: queued %d songs.", tag, added))
}
