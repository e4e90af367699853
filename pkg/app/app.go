// Package app builds the cobra command shared by the camlink binaries: named flag sets,
// an optional YAML config file, CAMLINK_ environment overrides and logger setup.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/cli/globalflag"
	"k8s.io/component-base/term"

	"github.com/autopeer-io/camlink/pkg/log"
)

// RunFunc is the service entry point, called after the options are complete and valid.
type RunFunc func() error

// NamedFlagSetOptions is implemented by the options of every binary.
type NamedFlagSetOptions interface {
	// Flags returns the flags grouped by section.
	Flags() cliflag.NamedFlagSets
	// Complete fills in derived fields.
	Complete() error
	// Validate reports every invalid field at once.
	Validate() error
}

// LogOptioner is implemented by options that carry the logger configuration.
type LogOptioner interface {
	LogOptions() *log.Options
}

type App struct {
	name        string
	shortDesc   string
	description string
	options     NamedFlagSetOptions
	runFunc     RunFunc
	args        cobra.PositionalArgs
	noConfig    bool
	watchConfig bool

	viper      *viper.Viper
	configFile string
	cmd        *cobra.Command
}

type Option func(*App)

func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) { a.options = opts }
}

func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithDefaultValidArgs rejects positional arguments.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithoutConfig drops the --config flag and environment overrides.
func WithoutConfig() Option {
	return func(a *App) { a.noConfig = true }
}

// WithWatchConfig reloads the log level when the config file changes.
func WithWatchConfig() Option {
	return func(a *App) { a.watchConfig = true }
}

func NewApp(name string, shortDesc string, opts ...Option) *App {
	a := &App{
		name:      name,
		shortDesc: shortDesc,
		viper:     viper.New(),
	}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

// Command returns the root command.
func (a *App) Command() *cobra.Command { return a.cmd }

// Run executes the command and exits the process with status 1 on failure.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", a.name, err)
		os.Exit(1)
	}
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.shortDesc,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          a.args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCommand(cmd)
		},
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	var fss cliflag.NamedFlagSets
	if a.options != nil {
		fss = a.options.Flags()
	}
	if !a.noConfig {
		fss.FlagSet("global").StringVarP(&a.configFile, "config", "c", "",
			fmt.Sprintf("Read configuration from the specified YAML file. Without it %s.yaml is looked up in ., $HOME/.camlink and /etc/camlink.", a.name))
	}
	globalflag.AddGlobalFlags(fss.FlagSet("global"), cmd.Name())
	for _, f := range fss.FlagSets {
		cmd.Flags().AddFlagSet(f)
	}

	cols, _, _ := term.TerminalSize(cmd.OutOrStdout())
	cliflag.SetUsageAndHelpFunc(cmd, fss, cols)

	a.cmd = cmd
}

func (a *App) runCommand(cmd *cobra.Command) error {
	if a.options != nil && !a.noConfig {
		if err := a.loadConfig(cmd.Flags()); err != nil {
			return err
		}
	}

	var logOpts *log.Options
	if lo, ok := a.options.(LogOptioner); ok {
		logOpts = lo.LogOptions()
	}
	if logOpts != nil {
		log.Init(logOpts)
	}
	printFlags(cmd.Flags())

	if a.options != nil {
		if err := a.options.Complete(); err != nil {
			return fmt.Errorf("complete options: %w", err)
		}
		if err := a.options.Validate(); err != nil {
			return err
		}
	}

	if a.watchConfig && !a.noConfig && a.viper.ConfigFileUsed() != "" {
		a.watch()
	}

	if a.runFunc == nil {
		return nil
	}
	return a.runFunc()
}
