package lintmain

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/go-lintpack/rulepack/lintdoc"
	"github.com/go-lintpack/rulepack/linter/lintmain/internal/check"
)

func newRootCommand(env *environment) *cobra.Command {
	name := env.cfg.Name
	if name == "" {
		name = "rulepack"
	}
	root := &cobra.Command{
		Use:           name,
		Short:         name + " - rule based Go source analyzer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		checkCommand(env),
		fixCommand(env),
		docCommand(env),
		versionCommand(env),
	)
	return root
}

// bindRunFlags registers the flags shared by check and fix.
func bindRunFlags(cmd *cobra.Command, opts *check.Options) {
	flags := cmd.Flags()
	flags.StringVar(&opts.DisableTags, "disableTags", `^experimental$`,
		`regexp that excludes rules that have matching tag`)
	flags.StringVar(&opts.Disable, "disable", "",
		`regexp that disables unwanted rules by ID or name`)
	flags.StringVar(&opts.Enable, "enable", "",
		`regexp that selects what rules are being run. Applied after all other filters`)
	flags.StringVarP(&opts.ConfigPath, "config", "c", "",
		`path to config file, discovered from the working directory by default`)
	flags.IntVar(&opts.ExitCode, "exitCode", 1,
		`exit code to be used when lint issues are found`)
	flags.BoolVar(&opts.CheckTests, "checkTests", true,
		`whether to check test files`)
	flags.BoolVar(&opts.CheckGenerated, "checkGenerated", false,
		`whether to check generated files`)
	flags.BoolVar(&opts.ShorterErrLocation, "shorterErrLocation", true,
		`whether to replace error location prefix with $GOROOT and $GOPATH`)
	flags.BoolVar(&opts.ColoredOutput, "coloredOutput", true,
		`whether to use colored output`)
	flags.IntVar(&opts.Jobs, "jobs", 0,
		`number of files analyzed in parallel, one per CPU by default`)
}

func runOptions(env *environment, cmd *cobra.Command, opts check.Options, args []string) check.Options {
	opts.Catalog = env.catalog
	opts.Providers = env.cfg.Providers
	opts.Dir = env.dir
	opts.Out = cmd.OutOrStdout()
	opts.Logger = env.logger
	opts.Targets = args
	return opts
}

func checkCommand(env *environment) *cobra.Command {
	var opts check.Options
	cmd := &cobra.Command{
		Use:   "check [packages | files]",
		Short: "run linter over specified targets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return check.Main(cmd.Context(), runOptions(env, cmd, opts, args))
		},
	}
	bindRunFlags(cmd, &opts)
	return cmd
}

func fixCommand(env *environment) *cobra.Command {
	var opts check.Options
	cmd := &cobra.Command{
		Use:   "fix --title TITLE [packages | files]",
		Short: "apply the fix with the given title to every issue offering it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.FixTitle == "" {
				return fmt.Errorf("--title is required")
			}
			return check.Main(cmd.Context(), runOptions(env, cmd, opts, args))
		},
	}
	bindRunFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.FixTitle, "title", "", `title of the fix to apply`)
	return cmd
}

func docCommand(env *environment) *cobra.Command {
	var checkDir, ext string
	cmd := &cobra.Command{
		Use:   "doc [ruleID]",
		Short: "print rule documentation or check documentation coverage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if checkDir != "" {
				mismatches, err := lintdoc.CheckCoverageFs(env.fs(), env.catalog.IDs(), env.path(checkDir), ext)
				if err != nil {
					return err
				}
				for _, m := range mismatches {
					fmt.Fprintln(out, m)
				}
				if len(mismatches) != 0 {
					return &check.ExitError{Code: 1}
				}
				return nil
			}
			if len(args) == 0 {
				return lintdoc.PrintShortDoc(out, env.catalog)
			}
			rule, ok := env.catalog.Lookup(args[0])
			if !ok {
				return fmt.Errorf("rule with ID %q not found", args[0])
			}
			return lintdoc.PrintDoc(out, rule)
		},
	}
	cmd.Flags().StringVar(&checkDir, "check-dir", "",
		`directory with <ruleID>_<language>.<ext> documentation files to check against the catalog`)
	cmd.Flags().StringVar(&ext, "ext", "",
		`documentation file extension, like .html; any by default`)
	return cmd
}

func versionCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print linter version",
		Run: func(cmd *cobra.Command, args []string) {
			log.New(cmd.OutOrStdout(), "", 0).Println(env.cfg.Version)
		},
	}
}
