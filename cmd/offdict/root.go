package main

import (
	"fmt"
	"os"

	"github.com/bastiangx/offdict/internal/logger"
	"github.com/bastiangx/offdict/pkg/config"
	"github.com/bastiangx/offdict/pkg/dict"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	dataDir    string
	debug      bool

	cfg        *config.Config
	activePath string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           AppName,
		Short:         "offdict, an offline multi-dictionary lookup",
		Long:          "Import dictionaries, build fuzzy search indexes and look words up offline.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Setup(a.debug)
			if cmd.Name() == "version" {
				return nil
			}
			cfg, path, err := config.LoadConfigWithPriority(a.configPath)
			if err != nil {
				return err
			}
			if a.dataDir != "" {
				cfg.Data.Dir = a.dataDir
			}
			a.cfg, a.activePath = cfg, path
			log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(path))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a config file")
	root.PersistentFlags().StringVar(&a.dataDir, "data", "", "Data directory, overrides the config")
	root.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "Toggle debug logging")

	root.AddCommand(
		a.importCmd(),
		a.trieCmd(),
		a.indexCmd(),
		a.lookupCmd(),
		a.statCmd(),
		a.compactCmd(),
		a.serveCmd(),
		a.configCmd(),
		versionCmd(),
	)
	return root
}

// open builds the dictionary from the loaded config.
func (a *app) open() (*dict.Dictionary, error) {
	opts, err := dict.OptionsFromConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	log.Debugf("Using data dir at: %s", opts.Dir)
	return dict.Open(opts)
}

// withDict opens the dictionary around fn.
func (a *app) withDict(fn func(d *dict.Dictionary) error) error {
	d, err := a.open()
	if err != nil {
		return fmt.Errorf("open dictionary: %w", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Warnf("Closing dictionary: %v", err)
		}
	}()
	return fn(d)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show current version",
		Run: func(cmd *cobra.Command, args []string) {
			banner := logger.NewWithConfig(os.Stderr, "", log.InfoLevel, false, false, log.TextFormatter)

			styles := log.DefaultStyles()
			styles.Values["version"] = lipgloss.NewStyle().Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
			styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
			banner.SetStyles(styles)

			banner.Print("")
			banner.Print("[ offdict ] Offline dictionaries, fuzzy and fast")
			banner.Print("", "version", Version)
			banner.Print("")
			banner.Print("use -h or --help to see available options")
			banner.Print("Github Repo", "gh", gh)
		},
	}
}
