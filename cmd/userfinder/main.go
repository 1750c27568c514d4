package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redditdl/userfinder/internal/finder"
	"github.com/redditdl/userfinder/internal/panel"
	"github.com/redditdl/userfinder/internal/setup"
	"github.com/redditdl/userfinder/internal/types"
	"github.com/redditdl/userfinder/internal/update"
	"github.com/redditdl/userfinder/pkg/utils"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const updateCheckTimeout = 5 * time.Second

var (
	ErrNameRequired    = errors.New("NAME argument required")
	ErrEntriesRequired = errors.New("at least one entry required")
	ErrIndexRequired   = errors.New("INDEX argument required")
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:    "userfinder",
		Usage:   "Find Reddit users posting in a list of subreddits",
		Version: setup.Version,
		Commands: []*cli.Command{
			discoverCommand(),
			{
				Name:      "post-count",
				Usage:     "Count the submissions of a user",
				ArgsUsage: "NAME",
				Action:    withApp(postCountAction),
			},
			{
				Name:      "preview",
				Usage:     "Show the recent submissions of a user",
				ArgsUsage: "NAME",
				Action:    withApp(previewAction),
			},
			listCommand("watchlist", "subreddit", (*panel.Panel).Watchlist,
				(*panel.Panel).AddSubreddit, (*panel.Panel).RemoveSubreddit),
			listCommand("blacklist", "user", (*panel.Panel).Blacklist,
				(*panel.Panel).AddBlacklisted, (*panel.Panel).RemoveBlacklisted),
			settingsCommand(),
			{
				Name:  "check-update",
				Usage: "Check whether a newer release is available",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "skip",
						Usage: "Do not notify about the available version again",
					},
				},
				Action: withApp(checkUpdateAction),
			},
		},
	}

	return app.Run(ctx, os.Args)
}

// appAction is a command action with an initialized application.
type appAction func(ctx context.Context, c *cli.Command, app *setup.App) error

// withApp initializes the application for the duration of an action.
func withApp(action appAction) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		app, err := setup.InitializeApp(ctx)
		if err != nil {
			return err
		}
		defer app.Cleanup()

		if err := action(ctx, c, app); err != nil {
			app.Logger.Error("Command failed", zap.String("command", c.Name), zap.Error(err))
			return err
		}
		return nil
	}
}

func discoverCommand() *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "Scan the watchlist for users posting in it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "window",
				Aliases: []string{"t"},
				Usage:   "Top listing time window (hour, day, week, month, year, all)",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Posts fetched per subreddit",
			},
			&cli.IntFlag{
				Name:  "min-score",
				Usage: "Ignore posts scoring below this value (negative disables the filter)",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Sort users by name, karma or post_date",
			},
			&cli.StringFlag{
				Name:  "order",
				Usage: "Sort order (asc, desc)",
			},
			&cli.BoolFlag{
				Name:  "post-counts",
				Usage: "Count the submissions of every found user after the run",
			},
			&cli.BoolFlag{
				Name:  "add",
				Usage: "Add every found user to the configured user list",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Do not draw the progress bar",
			},
		},
		Action: withApp(discoverAction),
	}
}

func discoverAction(ctx context.Context, c *cli.Command, app *setup.App) error {
	if err := applyRunFlags(c, app); err != nil {
		return err
	}

	shell := newConsoleShell(os.Stdout, !c.Bool("no-progress"))
	p := app.NewPanel(ctx, shell)
	defer func() {
		if err := p.Close(); err != nil {
			app.Logger.Warn("Failed to close panel", zap.Error(err))
		}
	}()

	if c.IsSet("sort") {
		method, err := types.SortMethodString(c.String("sort"))
		if err != nil {
			return err
		}
		p.SetSortMethod(method)
	}
	if c.IsSet("order") {
		order, err := types.SortOrderString(c.String("order"))
		if err != nil {
			return err
		}
		p.SetSortOrder(order)
	}

	if app.Config.Update.CheckOnStartup {
		notifyUpdate(ctx, app)
	}

	shell.runStarted(len(p.Watchlist()))
	if _, err := p.Start(); err != nil {
		return err
	}
	if shell.renderer != nil {
		shell.renderer.Start(ctx)
	}

	err := drive(ctx, p, func() bool { return p.State() != panel.StateRunning })
	if shell.renderer != nil {
		shell.renderer.Stop()
	}
	if err != nil {
		p.Abandon()
		return err
	}

	if c.Bool("post-counts") {
		if err := countPosts(ctx, p); err != nil {
			return err
		}
	}

	if c.Bool("add") {
		for i := range p.Users() {
			if err := p.AddFoundToList(i); err != nil {
				return err
			}
		}
	}

	printUsers(os.Stdout, p.Users())

	if shell.result != nil && shell.result.Err != nil {
		return shell.result.Err
	}
	return nil
}

// applyRunFlags stores the run filters given on the command line.
func applyRunFlags(c *cli.Command, app *setup.App) error {
	var errs []error

	if c.IsSet("window") {
		window, err := types.TimeWindowString(c.String("window"))
		if err != nil {
			return err
		}
		errs = append(errs, app.Settings.SetTopTimeWindow(window))
	}
	if c.IsSet("limit") {
		errs = append(errs, app.Settings.SetPostLimit(int(c.Int("limit"))))
	}
	if c.IsSet("min-score") {
		minScore := int(c.Int("min-score"))
		errs = append(errs, app.Settings.SetFilterByScore(minScore >= 0))
		if minScore >= 0 {
			errs = append(errs, app.Settings.SetScoreLimit(minScore))
		}
	}

	return errors.Join(errs...)
}

// countPosts requests the post count of every found user, one at a time.
func countPosts(ctx context.Context, p *panel.Panel) error {
	names := make([]string, 0, len(p.Users()))
	for _, user := range p.Users() {
		names = append(names, user.Name)
	}

	for _, name := range names {
		index := indexOf(p.Users(), name)
		if index < 0 {
			continue
		}

		if err := p.RequestPostCount(index); err != nil {
			return err
		}
		if err := drive(ctx, p, func() bool { return !p.PostCountPending() }); err != nil {
			return err
		}
	}

	return nil
}

func indexOf(users []*types.DiscoveredUser, name string) int {
	for i, user := range users {
		if user.Name == name {
			return i
		}
	}
	return -1
}

// drive applies panel events until done reports true or ctx is cancelled.
func drive(ctx context.Context, p *panel.Panel, done func() bool) error {
	for !done() {
		select {
		case ev := <-p.Events():
			p.Handle(ev)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func postCountAction(ctx context.Context, c *cli.Command, app *setup.App) error {
	name := utils.NormalizeName(c.Args().First())
	if name == "" {
		return ErrNameRequired
	}

	events := make(chan finder.Event, 1)
	worker := finder.NewWorker(app.Reddit, app.Cache, app.FinderOptions(), app.Logger)
	if err := worker.PostCount(ctx, 1, name, events); err != nil {
		return err
	}

	select {
	case ev := <-events:
		result, _ := ev.(finder.PostCountResult)
		if result.Err != nil {
			return result.Err
		}

		source := "reddit"
		if result.Cached {
			source = "cache"
		}
		fmt.Printf("%s has %d posts (%s)\n", result.Name, result.Count, source)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func previewAction(ctx context.Context, c *cli.Command, app *setup.App) error {
	name := utils.NormalizeName(c.Args().First())
	if name == "" {
		return ErrNameRequired
	}

	events := make(chan finder.Event, 1)
	worker := finder.NewWorker(app.Reddit, app.Cache, app.FinderOptions(), app.Logger)
	if err := worker.FetchContent(ctx, 1, name, events); err != nil {
		return err
	}

	select {
	case ev := <-events:
		loaded, _ := ev.(finder.ContentLoaded)
		if loaded.Err != nil {
			return loaded.Err
		}
		printContent(os.Stdout, loaded.Items)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// listCommand builds the list, add and remove subcommands of an editable list.
func listCommand(
	name, entry string,
	list func(*panel.Panel) []string,
	add func(*panel.Panel, string) error,
	remove func(*panel.Panel, int) (string, error),
) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: fmt.Sprintf("Manage the %s", name),
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: fmt.Sprintf("Show the %s", name),
				Action: withApp(func(ctx context.Context, _ *cli.Command, app *setup.App) error {
					p := app.NewPanel(ctx, nil)
					defer p.Close()

					for i, value := range list(p) {
						fmt.Printf("%3d  %s\n", i, value)
					}
					return nil
				}),
			},
			{
				Name:      "add",
				Usage:     fmt.Sprintf("Add comma or newline separated %s names", entry),
				ArgsUsage: "NAME...",
				Action: withApp(func(ctx context.Context, c *cli.Command, app *setup.App) error {
					entries := utils.ParseDelimitedInput(strings.Join(c.Args().Slice(), ","))
					if len(entries) == 0 {
						return ErrEntriesRequired
					}

					p := app.NewPanel(ctx, nil)
					defer p.Close()

					for _, value := range entries {
						if err := add(p, value); err != nil {
							fmt.Printf("skipped %q: %v\n", value, err)
							continue
						}
						fmt.Printf("added %s\n", utils.NormalizeName(value))
					}
					return p.SaveSettings()
				}),
			},
			{
				Name:      "remove",
				Usage:     fmt.Sprintf("Remove a %s by its position in the list", entry),
				ArgsUsage: "INDEX",
				Action: withApp(func(ctx context.Context, c *cli.Command, app *setup.App) error {
					var index int
					if _, err := fmt.Sscan(c.Args().First(), &index); err != nil {
						return ErrIndexRequired
					}

					p := app.NewPanel(ctx, nil)
					defer p.Close()

					removed, err := remove(p, index)
					if err != nil {
						return err
					}
					fmt.Printf("removed %s\n", removed)
					return p.SaveSettings()
				}),
			},
		},
	}
}

func settingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change saved settings",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the saved settings",
				Action: withApp(func(_ context.Context, _ *cli.Command, app *setup.App) error {
					s := app.Settings
					fmt.Printf("time window:    %s\n", s.TopTimeWindow().QueryValue())
					fmt.Printf("post limit:     %d\n", s.PostLimit())
					fmt.Printf("score filter:   %t (limit %d)\n", s.FilterByScore(), s.ScoreLimit())
					fmt.Printf("sort:           %s %s\n", s.SortMethod(), s.SortOrder())
					fmt.Printf("preview size:   %d\n", s.PreviewSize())
					fmt.Printf("auto add list:  %s\n", s.AutoAddList())
					fmt.Printf("subreddits:     %d\n", len(s.Watchlist()))
					fmt.Printf("blacklisted:    %d\n", len(s.Blacklist()))
					return nil
				}),
			},
			{
				Name:  "set",
				Usage: "Change saved settings",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "window", Usage: "Top listing time window"},
					&cli.IntFlag{Name: "limit", Usage: "Posts fetched per subreddit"},
					&cli.IntFlag{Name: "min-score", Usage: "Score filter limit (negative disables the filter)"},
					&cli.IntFlag{Name: "preview-size", Usage: "Preview size in pixels (0 hides previews)"},
					&cli.StringFlag{Name: "auto-add-list", Usage: "User list found users are added to"},
				},
				Action: withApp(func(_ context.Context, c *cli.Command, app *setup.App) error {
					if err := applyRunFlags(c, app); err != nil {
						return err
					}
					if c.IsSet("preview-size") {
						if err := app.Settings.SetPreviewSize(int(c.Int("preview-size"))); err != nil {
							return err
						}
					}
					if c.IsSet("auto-add-list") {
						if err := app.Settings.SetAutoAddList(c.String("auto-add-list")); err != nil {
							return err
						}
					}
					return app.Settings.Flush()
				}),
			},
		},
	}
}

// notifyUpdate prints the update notice if one is due. Failures are only logged.
func notifyUpdate(ctx context.Context, app *setup.App) {
	checkCtx, cancel := context.WithTimeout(ctx, updateCheckTimeout)
	defer cancel()

	notice, err := app.Updates.Check(checkCtx, setup.Version, app.Settings)
	if err != nil {
		app.Logger.Debug("Update check failed", zap.Error(err))
		return
	}
	if notice != nil {
		fmt.Printf("%s\n%s: %s\n\n", notice.Message(), notice.LinkText(), notice.Link())
	}
}

func checkUpdateAction(ctx context.Context, c *cli.Command, app *setup.App) error {
	notice, err := app.Updates.Check(ctx, setup.Version, app.Settings)
	if err != nil {
		return err
	}
	if notice == nil {
		fmt.Println("You are running the latest version.")
		return nil
	}

	fmt.Println(notice.Message())
	fmt.Printf("%s: %s\n", notice.LinkText(), notice.Link())
	fmt.Printf("All releases: %s\n", notice.ReleasesURL)

	return update.Dismiss(app.Settings, *notice, c.Bool("skip"), nil)
}
