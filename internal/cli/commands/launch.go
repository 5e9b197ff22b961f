package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conduit-lang/mockls/internal/cli/config"
	"github.com/conduit-lang/mockls/internal/cli/ui"
	"github.com/conduit-lang/mockls/internal/launch"
	"github.com/spf13/cobra"
)

// NewLaunchCommand creates the launch command and its subcommands
func NewLaunchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Manage launch descriptors for the mock server",
		Long: `Manage launch descriptors.

A launch descriptor tells an editor how to start mockls as an external
language server, and an association maps a content type to a descriptor.`,
	}

	cmd.PersistentFlags().String("store", "", "Launch store file (default from launch.store)")

	cmd.AddCommand(newLaunchRegisterCommand())
	cmd.AddCommand(newLaunchListCommand())
	cmd.AddCommand(newLaunchToggleCommand("enable", true))
	cmd.AddCommand(newLaunchToggleCommand("disable", false))
	cmd.AddCommand(newLaunchStartCommand())

	return cmd
}

func newLaunchRegisterCommand() *cobra.Command {
	var (
		contentType string
		name        string
		program     string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create the mock server descriptor and associate a content type",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore(cmd)
			if err != nil {
				return err
			}
			if contentType == "" {
				contentType = cfg.Launch.ContentType
			}

			logger, err := config.NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync()

			registry, err := loadRegistry(store)
			if err != nil {
				return err
			}

			d, ok := launch.Bootstrap(store, registry, launch.Options{
				Name:        name,
				ContentType: contentType,
				Program:     program,
			}, logger.Named("launch"))
			if !ok {
				return fmt.Errorf("launch registration failed, see log for details")
			}

			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s is associated with %s (%s)", contentType, d.Name, store.Path()), noColor(cmd))
			return nil
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "Content type to associate (default from launch.content_type)")
	cmd.Flags().StringVar(&name, "name", launch.DefaultLaunchName, "Descriptor name")
	cmd.Flags().StringVar(&program, "program", "", "Program to launch (default: this executable)")

	return cmd
}

func newLaunchListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List launch descriptors and content type associations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore(cmd)
			if err != nil {
				return err
			}

			descriptors, err := store.List()
			if err != nil {
				return err
			}
			associations, err := store.Associations()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			nc := noColor(cmd)

			ui.Header(out, "Launches", nc)
			launches := ui.NewTable(out, nc, "Name", "Program", "Args", "Background", "ID")
			for _, d := range descriptors {
				launches.AddRow(d.Name, d.Program, strings.Join(d.Args, " "), yesNo(d.Background), d.ID)
			}
			launches.Render()

			fmt.Fprintln(out)
			ui.Header(out, "Associations", nc)
			table := ui.NewTable(out, nc, "Content type", "Launch", "Modes", "Enabled")
			for _, a := range associations {
				modes := make([]string, len(a.Modes))
				for i, m := range a.Modes {
					modes[i] = string(m)
				}
				table.AddRow(a.ContentType, a.LaunchName, strings.Join(modes, ","), yesNo(a.Enabled))
			}
			table.Render()
			return nil
		},
	}
}

func newLaunchToggleCommand(use string, enabled bool) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   use + " <content-type>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a content type association",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore(cmd)
			if err != nil {
				return err
			}
			registry, err := loadRegistry(store)
			if err != nil {
				return err
			}

			contentType := args[0]
			if err := registry.SetEnabled(contentType, name, enabled); err != nil {
				if errors.Is(err, launch.ErrAssociationNotFound) {
					var known []string
					for _, a := range registry.Associations() {
						known = append(known, a.ContentType)
					}
					cmd.PrintErr(ui.AssociationNotFoundError(contentType, ui.FindSimilar(contentType, known), noColor(cmd)))
				}
				return err
			}
			if err := store.SaveAssociations(registry.Associations()); err != nil {
				return err
			}

			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("%sd %s -> %s", use, contentType, name), noColor(cmd))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "launch", launch.DefaultLaunchName, "Descriptor the association points at")
	return cmd
}

func newLaunchStartCommand() *cobra.Command {
	var (
		contentType string
		mode        string
	)

	cmd := &cobra.Command{
		Use:   "start [name]",
		Short: "Start a launch by name, or the one associated with a content type",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore(cmd)
			if err != nil {
				return err
			}

			var name string
			if len(args) == 1 {
				name = args[0]
			} else {
				if contentType == "" {
					contentType = cfg.Launch.ContentType
				}
				registry, err := loadRegistry(store)
				if err != nil {
					return err
				}
				a, ok := registry.Lookup(contentType, launch.Mode(mode))
				if !ok {
					cmd.PrintErr(ui.AssociationNotFoundError(contentType, nil, noColor(cmd)))
					return fmt.Errorf("%s (%s mode): %w", contentType, mode, launch.ErrAssociationNotFound)
				}
				name = a.LaunchName
			}

			d, found, err := store.FindByName(name)
			if err != nil {
				return err
			}
			if !found {
				descriptors, err := store.List()
				if err != nil {
					return err
				}
				names := make([]string, len(descriptors))
				for i, d := range descriptors {
					names[i] = d.Name
				}
				cmd.PrintErr(ui.LaunchNotFoundError(name, ui.FindSimilar(name, names), noColor(cmd)))
				return fmt.Errorf("launch %q not found", name)
			}

			c, err := d.Start(cmd.Context())
			if err != nil {
				return err
			}
			if d.Background {
				ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("started %s (pid %d)", d.Name, c.Process.Pid), noColor(cmd))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "Content type to resolve when no name is given")
	cmd.Flags().StringVar(&mode, "mode", string(launch.ModeRun), "Launch mode: run or debug")
	return cmd
}

// openStore resolves the launch store from --store or launch.store.
func openStore(cmd *cobra.Command) (*config.Config, *launch.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	path, _ := cmd.Flags().GetString("store")
	if path == "" {
		path = cfg.Launch.Store
	}
	return cfg, launch.NewStore(path), nil
}

func loadRegistry(store *launch.Store) (*launch.Registry, error) {
	associations, err := store.Associations()
	if err != nil {
		return nil, err
	}
	return launch.NewRegistry(associations...), nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
