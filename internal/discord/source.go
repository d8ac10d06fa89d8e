package discord

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"

	"github.com/kkdai/youtube/v2"

	"caffonia/internal/session"
	"caffonia/internal/song"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz
)

// openSource returns raw PCM (s16le, 48kHz stereo) for a song plus a cleanup
// that kills the decoder process. Continuous streams feed their URL straight
// to ffmpeg; everything else goes through a stream URL lookup first.
func openSource(ctx context.Context, sng song.Song, quality session.Quality) (io.ReadCloser, func(), error) {
	link := sng.SourceURL
	if !sng.ContinuousStream {
		resolved, err := resolveStreamURL(ctx, sng.SourceURL, quality)
		if err != nil {
			return nil, nil, err
		}
		link = resolved
	}
	return ffmpegPCM(ctx, link)
}

func resolveStreamURL(ctx context.Context, rawURL string, quality session.Quality) (string, error) {
	videoID, err := youtube.ExtractVideoID(rawURL)
	if err != nil {
		return "", fmt.Errorf("extract video id: %w", err)
	}

	client := &youtube.Client{}
	video, err := client.GetVideoContext(ctx, videoID)
	if err != nil {
		return "", fmt.Errorf("fetch video %s: %w", videoID, err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return "", fmt.Errorf("no audio formats for %s", videoID)
	}

	link, err := client.GetStreamURLContext(ctx, video, pickFormat(formats, quality))
	if err != nil {
		return "", fmt.Errorf("stream url for %s: %w", videoID, err)
	}
	return link, nil
}

func pickFormat(formats youtube.FormatList, quality session.Quality) *youtube.Format {
	sorted := make([]youtube.Format, len(formats))
	copy(sorted, formats)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Bitrate > sorted[j].Bitrate })

	switch quality {
	case session.QualityHigh:
		return &sorted[0]
	case session.QualityLow:
		return &sorted[len(sorted)-1]
	}
	return &formats[0]
}

func ffmpegPCM(ctx context.Context, link string) (io.ReadCloser, func(), error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", link,
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-loglevel", "warning",
		"pipe:1",
	)

	reader, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	cleanup := func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
	return reader, cleanup, nil
}
