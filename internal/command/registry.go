package command

import "github.com/bwmarrin/discordgo"

// Registry holds the commands enabled for this process, wrapped in the
// standard middleware chain.
type Registry struct {
	cmds  map[string]Command
	order []Command
}

// NewRegistry builds the command set from the configured features.
func NewRegistry(deps *Deps) *Registry {
	r := &Registry{cmds: make(map[string]Command)}

	add := func(cmd Command) {
		wrapped := Apply(cmd, WithGuildOnly(), WithCommandLogger())
		r.cmds[wrapped.Name()] = wrapped
		r.order = append(r.order, wrapped)
	}

	add(&PlayCommand{Deps: deps})
	if deps.Resolver.CatalogAvailable() {
		add(&PlaySpotifyCommand{Deps: deps})
	}
	add(&PauseCommand{Deps: deps})
	add(&ResumeCommand{Deps: deps})
	add(&SkipCommand{Deps: deps})
	add(&StopCommand{Deps: deps})
	add(&VolumeCommand{Deps: deps})
	add(&QueueCommand{Deps: deps})
	add(&NowPlayingCommand{Deps: deps})
	add(&ShuffleCommand{Deps: deps})
	add(&LoopCommand{Deps: deps})
	add(&AutoplayCommand{Deps: deps})
	add(&QualityCommand{Deps: deps})
	add(&StatsCommand{Deps: deps})

	if deps.Cfg.EnablePlaylists {
		add(&PlaylistCommand{Deps: deps})
	}
	if deps.Cfg.EnableFavorites {
		add(&FavCommand{Deps: deps})
	}
	if deps.Cfg.EnableMood {
		add(&MoodCommand{Deps: deps})
	}
	if deps.Cfg.EnableRadio {
		add(&RadioCommand{Deps: deps})
	}
	if deps.Cfg.EnableTimers {
		add(&SleepCommand{Deps: deps})
		add(&PomodoroCommand{Deps: deps})
	}

	add(&HelpCommand{Deps: deps, All: r.All})
	return r
}

func (r *Registry) Get(name string) (Command, bool) {
	cmd, ok := r.cmds[name]
	return cmd, ok
}

func (r *Registry) All() []Command {
	out := make([]Command, len(r.order))
	copy(out, r.order)
	return out
}

// Definitions returns the slash command definitions for registration.
func (r *Registry) Definitions() []*discordgo.ApplicationCommand {
	defs := make([]*discordgo.ApplicationCommand, 0, len(r.order))
	for _, cmd := range r.order {
		defs = append(defs, cmd.Definition())
	}
	return defs
}
