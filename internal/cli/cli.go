// Package cli holds the gridbench command line: the cobra command tree, its
// flags, and the configuration layer that lets every flag also be set from a
// configuration file or a GRIDBENCH_ environment variable.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is the gridbench version.
const Version = "0.3.0"

// Cfg holds the configuration and the command tree that reads it.
type Cfg struct {
	*viper.Viper

	Root *cobra.Command

	measureCmd, synthCmd, inspectCmd, versionCmd *cobra.Command
}

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

// InitializeConfig builds a fresh command tree with its flags bound to a new
// configuration.
func InitializeConfig() *Cfg {
	cfg := &Cfg{Viper: viper.New()}

	cfg.Root = &cobra.Command{
		Use:   "gridbench",
		Short: "Measure timeseries read throughput of gridded data files.",
		Long: `gridbench reads the full time axis of one variable at the centre of a
(time, lat, lon) grid and reports how fast the read went. Files may be classic
NetCDF, NetCDF-4 or plain HDF5.

Every flag can also be set in a configuration file (--config) or with an
environment variable named GRIDBENCH_<FLAG>, with dashes replaced by
underscores.`,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return cfg.setConfig() },
	}

	cfg.measureCmd = &cobra.Command{
		Use:   "measure [FILE...]",
		Short: "Measure read throughput of gridded files",
		Long: `measure reads the central column of a randomly chosen precipitation or
temperature variable from each file and prints the rate per file followed by
the running average. Files are given as arguments or sampled from --directory.`,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.measure(cmd.OutOrStdout(), cmd.OutOrStderr(), args)
		},
	}

	cfg.synthCmd = &cobra.Command{
		Use:   "synth",
		Short: "Write a synthetic data file",
		Long: `synth writes a deterministic test file. The netcdf3 format writes a single
(z, y, x) variable; the grid formats write (time, lat, lon) files that measure
can read.`,
		DisableAutoGenTag: true,
		Args:              cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.synth(cmd.OutOrStdout())
		},
	}

	cfg.inspectCmd = &cobra.Command{
		Use:               "inspect FILE",
		Short:             "Describe the dimensions and variables of a file",
		DisableAutoGenTag: true,
		Args:              cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.inspect(cmd.OutOrStdout(), args[0])
		},
	}

	cfg.versionCmd = &cobra.Command{
		Use:               "version",
		Short:             "Print the version number",
		DisableAutoGenTag: true,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gridbench v%s\n", Version)
		},
	}

	cfg.Root.AddCommand(cfg.measureCmd, cfg.synthCmd, cfg.inspectCmd, cfg.versionCmd)
	// --num_files and --num-files name the same flag.
	cfg.Root.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	cfg.SetEnvPrefix("GRIDBENCH")
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()

	for _, o := range cfg.options() {
		for i, set := range o.flagsets {
			if i != 0 {
				// Share the flag defined on the first set.
				set.AddFlag(o.flagsets[0].Lookup(o.name))
				continue
			}
			switch o.defaultVal.(type) {
			case string:
				set.StringP(o.name, o.shorthand, o.defaultVal.(string), o.usage)
			case []string:
				set.StringSliceP(o.name, o.shorthand, o.defaultVal.([]string), o.usage)
			case bool:
				set.BoolP(o.name, o.shorthand, o.defaultVal.(bool), o.usage)
			case int:
				set.IntP(o.name, o.shorthand, o.defaultVal.(int), o.usage)
			case []int:
				set.IntSliceP(o.name, o.shorthand, o.defaultVal.([]int), o.usage)
			default:
				panic("invalid argument type")
			}
			cfg.BindPFlag(o.name, set.Lookup(o.name))
		}
	}
	return cfg
}

// setConfig reads the configuration file, if there is one.
func (cfg *Cfg) setConfig() error {
	if path := cfg.GetString("config"); path != "" {
		cfg.SetConfigFile(path)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("gridbench: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// logger returns a logger writing to w at the configured level.
func (cfg *Cfg) logger(w io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(cfg.GetString("log-level"))
	if err != nil {
		return nil, fmt.Errorf("gridbench: %v", err)
	}
	return &logrus.Logger{
		Out:       w,
		Formatter: new(logrus.TextFormatter),
		Hooks:     make(logrus.LevelHooks),
		Level:     lvl,
	}, nil
}

// intSlice reads an integer list that may come from a flag ("[4,8,8]"), an
// environment variable ("4,8,8") or a configuration file (a list).
func (cfg *Cfg) intSlice(name string) ([]int, error) {
	v := cfg.Get(name)
	s, ok := v.(string)
	if !ok {
		o, err := cast.ToIntSliceE(v)
		if err != nil {
			return nil, fmt.Errorf("gridbench: %s: %v", name, err)
		}
		return o, nil
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "[]" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "[") {
		s = "[" + s + "]"
	}
	var o []int
	if err := json.Unmarshal([]byte(s), &o); err != nil {
		return nil, fmt.Errorf("gridbench: %s: %v", name, err)
	}
	return o, nil
}

// stringSlice reads a string list, splitting any comma separated elements.
func (cfg *Cfg) stringSlice(name string) []string {
	var o []string
	for _, s := range cast.ToStringSlice(cfg.Get(name)) {
		for _, part := range strings.Split(strings.Trim(s, "[]"), ",") {
			if part = strings.TrimSpace(part); part != "" {
				o = append(o, part)
			}
		}
	}
	return o
}

// Execute runs the command line with the process arguments.
func Execute() {
	if err := InitializeConfig().Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
