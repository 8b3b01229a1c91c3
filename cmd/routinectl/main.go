package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"routinectl/internal/bootstrap"
	authdto "routinectl/internal/modules/auth/dto"
	"routinectl/internal/platform/config"
	"routinectl/internal/ui/routes"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var overrides config.Overrides

	root := &cobra.Command{
		Use:           "routinectl",
		Short:         "Run daily routines against the routine service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&overrides.APIBaseURL, "api", "", "routine API base URL")
	root.PersistentFlags().StringVar(&overrides.DataDir, "data-dir", "", "local data directory")

	root.AddCommand(newTUICmd(&overrides))
	root.AddCommand(newLoginCmd(&overrides))
	root.AddCommand(newRegisterCmd(&overrides))
	root.AddCommand(newLogoutCmd(&overrides))
	root.AddCommand(newWhoAmICmd(&overrides))
	root.AddCommand(newPasswordCmd(&overrides))
	root.AddCommand(newSettingsCmd(&overrides))
	root.AddCommand(newAccountCmd(&overrides))
	root.AddCommand(newTutorialCmd(&overrides))
	root.AddCommand(newRoutineCmd(&overrides))
	root.AddCommand(newRunCmd(&overrides))
	root.AddCommand(newHistoryCmd(&overrides))
	root.AddCommand(newPluginCmd(&overrides))
	root.AddCommand(newConfigCmd())
	return root
}

func loadApp(overrides *config.Overrides) (*bootstrap.App, error) {
	cfg, err := config.Load(*overrides)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, os.Stderr)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func newTUICmd(overrides *config.Overrides) *cobra.Command {
	var path string
	tui := &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(*overrides)
			if err != nil {
				return err
			}
			logFile, err := bootstrap.LogFile(cfg)
			if err != nil {
				return err
			}
			defer logFile.Close()
			app, err := bootstrap.New(cfg, logFile)
			if err != nil {
				return err
			}
			defer app.Close()
			return bootstrap.RunTUI(app, path)
		},
	}
	tui.Flags().StringVar(&path, "path", routes.Routines, "screen to open first")
	return tui
}

func printSession(cmd *cobra.Command, s authdto.SessionOutput) {
	if !s.Authenticated() || s.User == nil {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "status=%s\n", s.Status)
		return
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s <%s> plan=%s\n", s.User.Name, s.User.Email, s.User.Plan)
}

func newLoginCmd(overrides *config.Overrides) *cobra.Command {
	var email, password string
	login := &cobra.Command{
		Use:   "login --email <email> --password <password>",
		Short: "Sign in and keep the session cookie",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.AuthCLI.Login(context.Background(), email, password)
			if err != nil {
				return err
			}
			printSession(cmd, out)
			return nil
		},
	}
	login.Flags().StringVar(&email, "email", "", "account email")
	login.Flags().StringVar(&password, "password", "", "account password")
	return login
}

func newRegisterCmd(overrides *config.Overrides) *cobra.Command {
	var email, password, confirmation string
	register := &cobra.Command{
		Use:   "register --email <email> --password <password>",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if confirmation == "" {
				confirmation = password
			}
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.AuthCLI.Register(context.Background(), email, password, confirmation)
			if err != nil {
				return err
			}
			printSession(cmd, out)
			return nil
		},
	}
	register.Flags().StringVar(&email, "email", "", "account email")
	register.Flags().StringVar(&password, "password", "", "account password")
	register.Flags().StringVar(&confirmation, "confirm", "", "password confirmation (defaults to --password)")
	return register
}

func newLogoutCmd(overrides *config.Overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.AuthCLI.Logout(context.Background()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newWhoAmICmd(overrides *config.Overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.AuthCLI.WhoAmI(context.Background())
			if err != nil {
				return err
			}
			printSession(cmd, out)
			return nil
		},
	}
}

func newPasswordCmd(overrides *config.Overrides) *cobra.Command {
	password := &cobra.Command{Use: "password", Short: "Password recovery"}

	var forgotEmail string
	forgot := &cobra.Command{
		Use:   "forgot --email <email>",
		Short: "Request a password reset link",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(forgotEmail) == "" {
				return fmt.Errorf("--email is required")
			}
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			notice, err := app.AuthCLI.ForgotPassword(context.Background(), forgotEmail)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), notice)
			return nil
		},
	}
	forgot.Flags().StringVar(&forgotEmail, "email", "", "account email")

	var token, email, newPassword, confirmation string
	reset := &cobra.Command{
		Use:   "reset --token <token> --email <email> --password <password>",
		Short: "Set a new password with a reset token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(token) == "" {
				return fmt.Errorf("--token is required")
			}
			if confirmation == "" {
				confirmation = newPassword
			}
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			notice, err := app.AuthCLI.ResetPassword(context.Background(), token, email, newPassword, confirmation)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), notice)
			return nil
		},
	}
	reset.Flags().StringVar(&token, "token", "", "reset token from the email")
	reset.Flags().StringVar(&email, "email", "", "account email")
	reset.Flags().StringVar(&newPassword, "password", "", "new password")
	reset.Flags().StringVar(&confirmation, "confirm", "", "password confirmation (defaults to --password)")

	password.AddCommand(forgot, reset)
	return password
}

func printSettings(cmd *cobra.Command, s authdto.Settings) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "theme: %s\ndark_mode: %s\nshow_remaining_tasks: %t\nshow_elapsed_time: %t\nenable_task_estimated_time: %t\nshow_celebration: %t\n",
		s.Theme, s.DarkMode, s.ShowRemainingTasks, s.ShowElapsedTime, s.EnableTaskEstimatedTime, s.ShowCelebration)
}

func newSettingsCmd(overrides *config.Overrides) *cobra.Command {
	settings := &cobra.Command{Use: "settings", Short: "Display settings"}

	settings.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.AuthCLI.WhoAmI(context.Background())
			if err != nil {
				return err
			}
			printSettings(cmd, out.EffectiveSettings())
			return nil
		},
	})

	var theme, darkMode string
	var remaining, elapsed, estimate, celebration bool
	set := &cobra.Command{
		Use:   "set",
		Short: "Change settings; only given flags are sent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var patch authdto.SettingsPatch
			flags := cmd.Flags()
			if flags.Changed("theme") {
				patch.Theme = &theme
			}
			if flags.Changed("dark-mode") {
				patch.DarkMode = &darkMode
			}
			if flags.Changed("show-remaining") {
				patch.ShowRemainingTasks = &remaining
			}
			if flags.Changed("show-elapsed") {
				patch.ShowElapsedTime = &elapsed
			}
			if flags.Changed("show-estimate") {
				patch.EnableTaskEstimatedTime = &estimate
			}
			if flags.Changed("celebration") {
				patch.ShowCelebration = &celebration
			}
			if patch.Empty() {
				return fmt.Errorf("no settings given")
			}
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			saved, err := app.AuthCLI.SaveSettings(context.Background(), patch)
			if err != nil {
				return err
			}
			printSettings(cmd, saved)
			return nil
		},
	}
	set.Flags().StringVar(&theme, "theme", "", "theme: "+strings.Join(authdto.ThemeChoices, "|"))
	set.Flags().StringVar(&darkMode, "dark-mode", "", "dark mode: "+strings.Join(authdto.DarkModeChoices, "|"))
	set.Flags().BoolVar(&remaining, "show-remaining", false, "show remaining task count during runs")
	set.Flags().BoolVar(&elapsed, "show-elapsed", false, "show elapsed minutes during runs")
	set.Flags().BoolVar(&estimate, "show-estimate", false, "show task time estimates")
	set.Flags().BoolVar(&celebration, "celebration", false, "celebrate completed runs")
	settings.AddCommand(set)
	return settings
}

func newAccountCmd(overrides *config.Overrides) *cobra.Command {
	account := &cobra.Command{Use: "account", Short: "Account management"}
	var password string
	del := &cobra.Command{
		Use:   "delete --password <password>",
		Short: "Delete the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				return fmt.Errorf("--password is required")
			}
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.AuthCLI.DeleteAccount(context.Background(), password); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "account deleted")
			return nil
		},
	}
	del.Flags().StringVar(&password, "password", "", "current password")
	account.AddCommand(del)
	return account
}

func newTutorialCmd(overrides *config.Overrides) *cobra.Command {
	tutorial := &cobra.Command{Use: "tutorial", Short: "First-run tutorial"}
	tutorial.AddCommand(&cobra.Command{
		Use:   "dismiss",
		Short: "Hide the tutorial banner",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.AuthCLI.DismissTutorial(context.Background()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "tutorial dismissed")
			return nil
		},
	})
	return tutorial
}

func newRoutineCmd(overrides *config.Overrides) *cobra.Command {
	routine := &cobra.Command{Use: "routine", Short: "Routine management"}

	routine.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List routines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			routines, err := app.RoutineCLI.List(context.Background())
			if err != nil {
				return err
			}
			if len(routines) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no routines")
				return nil
			}
			for _, r := range routines {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d tasks\n", r.ID, r.Title, len(r.Tasks))
			}
			return nil
		},
	})

	routine.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a routine and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			r, err := app.RoutineCLI.Show(context.Background(), id)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", r.ID, r.Title)
			for i, task := range r.Tasks {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s\n", i+1, task)
			}
			return nil
		},
	})

	var createTitle string
	var createTasks []string
	create := &cobra.Command{
		Use:   "create --title <title> --task <task>...",
		Short: "Create a routine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			r, err := app.RoutineCLI.Create(context.Background(), createTitle, createTasks)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %d %s\n", r.ID, r.Title)
			return nil
		},
	}
	create.Flags().StringVar(&createTitle, "title", "", "routine title")
	create.Flags().StringArrayVar(&createTasks, "task", nil, "task, repeat in order")

	var editTitle string
	var editTasks []string
	edit := &cobra.Command{
		Use:   "edit <id> --title <title> --task <task>...",
		Short: "Replace a routine's title and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			r, err := app.RoutineCLI.Edit(context.Background(), id, editTitle, editTasks)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated %d %s\n", r.ID, r.Title)
			return nil
		},
	}
	edit.Flags().StringVar(&editTitle, "title", "", "routine title")
	edit.Flags().StringArrayVar(&editTasks, "task", nil, "task, repeat in order")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a routine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.RoutineCLI.Delete(context.Background(), id); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", id)
			return nil
		},
	}

	routine.AddCommand(create, edit, del)
	return routine
}

func newHistoryCmd(overrides *config.Overrides) *cobra.Command {
	history := &cobra.Command{Use: "history", Short: "Past runs"}

	var page, perPage int
	list := &cobra.Command{
		Use:   "list",
		Short: "List histories, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.HistoryCLI.List(context.Background(), page, perPage)
			if err != nil {
				return err
			}
			if len(out.Items) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no histories")
				return nil
			}
			for _, h := range out.Items {
				duration := "-"
				if h.DurationMinutes != nil {
					duration = fmt.Sprintf("%dmin", *h.DurationMinutes)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", h.ID, h.Title, h.Outcome, duration)
			}
			if out.Prev != "" || out.Next != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "prev=%s next=%s\n", out.Prev, out.Next)
			}
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&perPage, "per-page", 0, "items per page (server default when 0)")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			h, err := app.HistoryCLI.Show(context.Background(), id)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "id: %d\ntitle: %s\noutcome: %s\n", h.ID, h.Title, h.Outcome)
			if h.StartedAt != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "started: %s\n", h.StartedAt.Format("2006-01-02 15:04"))
			}
			if h.DurationMinutes != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "duration: %dmin\n", *h.DurationMinutes)
			}
			for i, task := range h.Tasks {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s\n", i+1, task)
			}
			return nil
		},
	}

	var dir string
	export := &cobra.Command{
		Use:   "export <id> --dir <dir>",
		Short: "Write a history as a markdown note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.HistoryCLI.Export(context.Background(), id, dir)
			if err != nil {
				return err
			}
			verb := "wrote"
			if out.Updated {
				verb = "updated"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, out.Path)
			return nil
		},
	}
	export.Flags().StringVar(&dir, "dir", ".", "target directory")

	history.AddCommand(list, show, export)
	return history
}

func newPluginCmd(overrides *config.Overrides) *cobra.Command {
	plugin := &cobra.Command{Use: "plugin", Short: "Celebration plugins"}
	plugin.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List plugin manifests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			plugins, err := app.CelebrationCLI.List(context.Background())
			if err != nil {
				return err
			}
			if len(plugins) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no plugins configured")
				return nil
			}
			for _, p := range plugins {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s@%s enabled=%t binary=%s capabilities=%s\n", p.Name, p.Version, p.Enabled, p.Binary, strings.Join(p.Capabilities, ","))
			}
			return nil
		},
	})

	plugin.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Validate plugin checksums and lifecycle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			results, err := app.CelebrationCLI.Doctor(context.Background())
			if err != nil {
				return err
			}
			if len(results) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no plugins configured")
				return nil
			}
			for _, r := range results {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s checksum=%t binary=%t lifecycle=%t", r.Name, r.ChecksumValid, r.BinaryReachable, r.LifecycleOK)
				if r.Error != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), " error=%q", r.Error)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	})
	return plugin
}

func newConfigCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Configuration files"}
	var path string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = config.GlobalConfigPath()
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "", "config file path (defaults to ~/.routinectl/config.yaml)")
	cfg.AddCommand(initCmd)
	return cfg
}
