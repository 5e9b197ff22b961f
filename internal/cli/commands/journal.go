package commands

import (
	"fmt"
	"time"

	"github.com/conduit-lang/mockls/internal/cli/ui"
	"github.com/conduit-lang/mockls/internal/journal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewJournalCommand creates the journal command
func NewJournalCommand() *cobra.Command {
	var (
		redisAddr  string
		key        string
		clearAfter bool
	)

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show notifications a running server recorded in Redis",
		Long: `Show the notification journal.

A server started with --journal-redis appends every didOpen, didChange,
didSave and didClose it handles to a Redis list. This command prints that
list, oldest first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			jcfg := journal.DefaultConfig()
			if cfg.Journal.RedisAddr != "" {
				jcfg.Addr = cfg.Journal.RedisAddr
			}
			if redisAddr != "" {
				jcfg.Addr = redisAddr
			}
			jcfg.Key = cfg.Journal.Key
			if key != "" {
				jcfg.Key = key
			}

			j, err := journal.New(jcfg, zap.NewNop())
			if err != nil {
				return err
			}
			defer j.Close()

			ctx := cmd.Context()
			entries, err := j.Events(ctx)
			if err != nil {
				return err
			}

			table := ui.NewTable(cmd.OutOrStdout(), noColor(cmd), "Time", "Kind", "URI")
			for _, e := range entries {
				table.AddRow(e.Time.Format(time.RFC3339Nano), string(e.Kind), string(e.URI))
			}
			table.Render()

			if clearAfter {
				if err := j.Clear(ctx); err != nil {
					return err
				}
				ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("cleared %d events from %s", len(entries), jcfg.Key), noColor(cmd))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address (default from journal.redis_addr)")
	cmd.Flags().StringVar(&key, "key", "", "Redis list key (default from journal.key)")
	cmd.Flags().BoolVar(&clearAfter, "clear", false, "Delete the journal after printing it")

	return cmd
}
