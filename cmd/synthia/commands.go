package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/genricoloni/synthia/internal/app"
	"github.com/genricoloni/synthia/internal/backend"
	"github.com/genricoloni/synthia/internal/config"
	"github.com/genricoloni/synthia/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "synthia",
		Short:         "Terminal client for mocp, mpd and xmms2",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			forcePlain, _ := cmd.Flags().GetBool("plain")
			return runInteractive(cfg, forcePlain)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "configuration file (default: synthia_settings.* in the config directories)")
	flags.String("backend", "", "daemon to control: mocp, mpd or xmms2")
	flags.Bool("plain", false, "use the plain ANSI frontend")
	flags.Bool("debug", false, "log at debug level")

	root.AddCommand(newStatusCmd(), newCtlCmd(), newConfigCmd())
	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path, cmd.Flags())
}

// withSession connects to the configured daemon for a one-shot command
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *backend.Session) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var session *backend.Session
	graph := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		fx.Provide(newLogger),
		app.BackendModule,
		fx.Populate(&session),
	)
	if err := graph.Err(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := session.Ping(ctx); err != nil {
		return err
	}
	return fn(ctx, session)
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the daemon status once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(ctx context.Context, s *backend.Session) error {
				st := s.Sync(ctx)
				if err := s.LastError(); err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}
}

func printStatus(w io.Writer, st domain.Status) {
	fmt.Fprintf(w, "state:   %s\n", st.State)
	if st.State != domain.StateStopped {
		fmt.Fprintf(w, "track:   %s\n", st.DisplayName())
		fmt.Fprintf(w, "file:    %s\n", st.File)
		if st.Album != "" {
			fmt.Fprintf(w, "album:   %s\n", st.Album)
		}
		fmt.Fprintf(w, "time:    %s / %s (-%s)\n", st.ElapsedClock(), st.TotalClock(), st.RemainingClock())
		if st.Bitrate > 0 {
			fmt.Fprintf(w, "bitrate: %d kbps\n", st.Bitrate)
		}
		if st.SampleRate > 0 {
			fmt.Fprintf(w, "rate:    %d Hz\n", st.SampleRate)
		}
	}
	fmt.Fprintf(w, "volume:  %d%%\n", st.Volume)
}

// ctlAction runs one backend operation with the command's arguments
type ctlAction struct {
	args int // exact argument count, -1 for one or more
	run  func(ctx context.Context, s *backend.Session, args []string) error
}

var ctlActions = map[string]ctlAction{
	"play-pause": {0, simple((*backend.Session).PlayPause)},
	"stop":       {0, simple((*backend.Session).Stop)},
	"next":       {0, simple((*backend.Session).Next)},
	"prev":       {0, simple((*backend.Session).Prev)},
	"clear":      {0, simple((*backend.Session).ClearQueue)},
	"start":      {0, simple((*backend.Session).StartQueue)},
	"update":     {0, simple((*backend.Session).UpdateLibrary)},
	"volume":     {1, withDelta((*backend.Session).SetRelativeVolume)},
	"seek":       {1, withDelta((*backend.Session).Seek)},
	"enqueue": {-1, func(ctx context.Context, s *backend.Session, args []string) error {
		for _, p := range args {
			abs, err := filepath.Abs(p)
			if err != nil {
				return err
			}
			s.Enqueue(ctx, abs)
			if err := s.LastError(); err != nil {
				return err
			}
		}
		return nil
	}},
}

func simple(op func(*backend.Session, context.Context)) func(context.Context, *backend.Session, []string) error {
	return func(ctx context.Context, s *backend.Session, _ []string) error {
		op(s, ctx)
		return s.LastError()
	}
}

func withDelta(op func(*backend.Session, context.Context, int)) func(context.Context, *backend.Session, []string) error {
	return func(ctx context.Context, s *backend.Session, args []string) error {
		delta, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid delta %q: %w", args[0], err)
		}
		op(s, ctx, delta)
		return s.LastError()
	}
}

func ctlNames() []string {
	return slices.Sorted(maps.Keys(ctlActions))
}

const ctlHelp = `Actions: play-pause, stop, next, prev, clear, start, update,
volume <delta>, seek <seconds>, enqueue <file>...

Put -- before a negative delta: synthia ctl volume -- -5`

func newCtlCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "ctl <action> [arg...]",
		Short:     "Run one daemon operation",
		Long:      ctlHelp,
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: ctlNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, ok := ctlActions[args[0]]
			if !ok {
				return fmt.Errorf("unknown action %q (%s)", args[0], strings.Join(ctlNames(), ", "))
			}
			rest := args[1:]
			switch {
			case action.args < 0 && len(rest) == 0:
				return fmt.Errorf("%s needs at least one argument", args[0])
			case action.args >= 0 && len(rest) != action.args:
				return fmt.Errorf("%s takes %d argument(s), got %d", args[0], action.args, len(rest))
			}
			return withSession(cmd, func(ctx context.Context, s *backend.Session) error {
				return action.run(ctx, s, rest)
			})
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			if file := cfg.ConfigFile(); file != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", file)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
