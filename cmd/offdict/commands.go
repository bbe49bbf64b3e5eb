package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/bastiangx/offdict/internal/cli"
	"github.com/bastiangx/offdict/pkg/config"
	"github.com/bastiangx/offdict/pkg/dict"
	"github.com/bastiangx/offdict/pkg/index"
	"github.com/bastiangx/offdict/pkg/server"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func (a *app) importCmd() *cobra.Command {
	var (
		dictName   string
		buildIndex bool
	)
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import definitions from YAML files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDict(func(d *dict.Dictionary) error {
				for _, path := range args {
					name := dictName
					if name == "" {
						name = dictNameFor(path)
					}
					entries, err := readEntriesFile(path, name)
					if err != nil {
						return err
					}
					st, err := d.Import(entries)
					if err != nil {
						return fmt.Errorf("import %s: %w", path, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records, %d new words, %d skipped (dict %q)\n",
						path, st.Records, st.NewWords, st.Skipped, name)
				}
				if !buildIndex {
					return nil
				}
				n, err := d.BuildIndex()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "indexed %d headwords\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dictName, "dict", "", "Dictionary name, defaults to the file name")
	cmd.Flags().BoolVar(&buildIndex, "index", false, "Rebuild the candidate indexes afterwards")
	return cmd
}

func (a *app) trieCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trie",
		Short: "Rebuild the fuzzy trie from the stored headwords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDict(func(d *dict.Dictionary) error {
				n, err := d.RebuildTrie()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "trie rebuilt with %d headwords\n", n)
				return nil
			})
		},
	}
}

func (a *app) indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "index [BACKEND...]",
		Short:     "Build candidate indexes, all backends by default",
		ValidArgs: []string{string(index.BackendFST), string(index.BackendTopK)},
		RunE: func(cmd *cobra.Command, args []string) error {
			var backends []index.Backend
			for _, arg := range args {
				b, err := index.ParseBackend(arg)
				if err != nil {
					return err
				}
				backends = append(backends, b)
			}
			return a.withDict(func(d *dict.Dictionary) error {
				n, err := d.BuildIndex(backends...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "indexed %d headwords\n", n)
				return nil
			})
		},
	}
}

func (a *app) lookupCmd() *cobra.Command {
	var (
		limit       int
		expensive   bool
		interactive bool
		trieOnly    bool
	)
	cmd := &cobra.Command{
		Use:   "lookup [QUERY]",
		Short: "Search the dictionaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !interactive && len(args) == 0 {
				return fmt.Errorf("missing query, or pass -i for interactive mode")
			}
			if limit <= 0 {
				limit = a.cfg.Search.Limit
			}
			return a.withDict(func(d *dict.Dictionary) error {
				if interactive {
					log.SetReportTimestamp(false)
					return cli.NewInputHandler(d, os.Stdin, cmd.OutOrStdout(), limit, expensive).Start()
				}
				q := strings.Join(args, " ")
				if trieOnly {
					matches, err := d.Lookup(q, limit)
					if err != nil {
						return err
					}
					for _, m := range matches {
						fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", m.Distance, m.Value)
					}
					return nil
				}
				found, err := d.Search(q, limit, expensive)
				if err != nil {
					return err
				}
				if len(found) == 0 {
					log.Warnf("No entries found for '%s'", q)
					return nil
				}
				return cli.Render(cmd.OutOrStdout(), found)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of headwords to return (default from config)")
	cmd.Flags().BoolVarP(&expensive, "expensive", "x", false, "Try wider edit distances")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Read queries from stdin")
	cmd.Flags().BoolVar(&trieOnly, "trie", false, "Only list trie matches with their edit distance")
	return cmd
}

func (a *app) statCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat",
		Short: "Show store, trie and index statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDict(func(d *dict.Dictionary) error {
				st, err := d.Stats()
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(st, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			})
		},
	}
}

func (a *app) compactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Fold pending merge operands into stored records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDict(func(d *dict.Dictionary) error {
				n, err := d.Compact()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "compacted %d keys\n", n)
				return nil
			})
		},
	}
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve lookups as msgpack over stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDict(func(d *dict.Dictionary) error {
				showStartupInfo(d)
				srv := server.NewServer(d, server.Options{
					DefaultLimit: a.cfg.Search.Limit,
					MaxLimit:     a.cfg.Server.MaxLimit,
				})
				return srv.Start()
			})
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or reset the config file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the active config file",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), config.GetActiveConfigPath(a.activePath))
			},
		},
		&cobra.Command{
			Use:   "rebuild",
			Short: "Overwrite the default config file with defaults",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return config.RebuildConfigFile()
			},
		},
	)
	return cmd
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(d *dict.Dictionary) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	st, err := d.Stats()
	if err != nil {
		log.Warnf("stats unavailable: %v", err)
		return
	}
	log.Infof("%s %s, process ID: [ %d ]", AppName, Version, os.Getpid())
	log.Infof("data dir: ( %s )", d.Options().Dir)
	log.Info("loaded", "words", st.Words, "records", st.Store.Records, "index", st.Backend)
	log.Info("status: ready")
}
