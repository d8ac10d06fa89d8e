package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"caffonia/internal/session"
)

// watchSession consumes one session's status events for its whole life:
// now-playing embeds, fatal notices and per-user play stats.
func (b *Bot) watchSession(sess *session.Session) {
	log := b.log.With().Str("guild_id", sess.GuildID()).Logger()

	for {
		select {
		case <-sess.Done():
			return
		case ev := <-sess.Status():
			switch ev.Kind {
			case session.StatusPlaying:
				b.postNowPlaying(sess.TextChannelID(), ev)
				if err := b.stats.RecordPlay(ev.Song.RequestedBy, ev.Song); err != nil {
					log.Warn().Err(err).Msg("record play")
				}
			case session.StatusFatal:
				b.notifyChannel(sess.TextChannelID(),
					"🎵 Playback kept failing and the session was stopped.")
				log.Error().Err(ev.Err).Msg("session died")
			}
		}
	}
}

func (b *Bot) postNowPlaying(channelID string, ev session.StatusEvent) {
	embed := &discordgo.MessageEmbed{
		Title:       "Now playing",
		Description: fmt.Sprintf("**%s** by %s (%s)", ev.Song.Title, ev.Song.Artist, ev.Song.DurationLabel),
		URL:         ev.Song.SourceURL,
	}
	if ev.Song.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: ev.Song.ThumbnailURL}
	}
	if ev.Song.RequestedBy != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: "requested by " + ev.Song.RequestedBy,
		}
	}
	if _, err := b.dg.ChannelMessageSendEmbed(channelID, embed); err != nil {
		b.log.Warn().Err(err).Str("channel_id", channelID).Msg("send now playing")
	}
}
