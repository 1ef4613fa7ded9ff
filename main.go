package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskbank/app"
	"taskbank/app/config"
	"taskbank/app/logging"
	"taskbank/app/logic"
	"taskbank/app/models"
	"taskbank/app/services"
)

type cli struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "taskbank",
		Short:         "Personal task board with a pinned, priority-ordered Main list",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if c.verbose {
				cfg.Log.Level = "debug"
			}
			logger, err := logging.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.cfg, c.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultPath, "path to the YAML config file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.serveCmd(), c.compileCmd(), c.purgeCmd())
	return root
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx, c.cfg, c.logger)
		},
	}
}

func (c *cli) compileCmd() *cobra.Command {
	var (
		input string
		at    string
	)
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Order a JSON task list the way Main would show it",
		Long: `Reads a JSON array of tasks and prints the compiled Main list together
with the tasks that have already expired. Nothing is read from or written to
the store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			var tasks []models.Task
			if err := json.NewDecoder(r).Decode(&tasks); err != nil {
				return fmt.Errorf("decode tasks: %w", err)
			}

			now := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--now: %w", err)
				}
				now = parsed
			}

			out := struct {
				MainList []models.Task `json:"main_list"`
				Expired  []models.Task `json:"expired"`
			}{
				MainList: c.cfg.Compiler().Compile(tasks, now),
				Expired:  logic.ExpiredTasks(tasks, now),
			}
			if out.Expired == nil {
				out.Expired = []models.Task{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "task list file, - for stdin")
	cmd.Flags().StringVar(&at, "now", "", "evaluate at this RFC 3339 time instead of the wall clock")
	return cmd
}

func (c *cli) purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired unfinished tasks from the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := config.OpenStore(ctx, c.cfg.Store)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			removed, err := services.NewTaskService(st, c.logger).PurgeExpired(ctx)
			if err != nil {
				return err
			}
			for _, id := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
