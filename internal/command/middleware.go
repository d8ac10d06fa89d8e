package command

// Middleware wraps a command with a cross-cutting check.
type Middleware func(Command) Command

// Apply wraps cmd with the given middlewares, outermost last.
func Apply(cmd Command, mws ...Middleware) Command {
	for _, mw := range mws {
		cmd = mw(cmd)
	}
	return cmd
}

// WithGuildOnly rejects invocations from DMs.
func WithGuildOnly() Middleware {
	return func(next Command) Command {
		return &guildOnly{next}
	}
}

type guildOnly struct{ Command }

func (g *guildOnly) Run(ctx *Context) error {
	if ctx.GuildID() == "" {
		return ctx.Reply("🎵 This command only works inside a server.")
	}
	return g.Command.Run(ctx)
}

// WithCommandLogger records every invocation.
func WithCommandLogger() Middleware {
	return func(next Command) Command {
		return &logged{next}
	}
}

type logged struct{ Command }

func (l *logged) Run(ctx *Context) error {
	ctx.Deps.Log.Info().
		Str("command", l.Name()).
		Str("guild_id", ctx.GuildID()).
		Str("user_id", ctx.UserID()).
		Msg("command invoked")
	return l.Command.Run(ctx)
}
