package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alexanderjulianmartinez/tablecensus/internal/census"
	"github.com/alexanderjulianmartinez/tablecensus/internal/config"
	"github.com/alexanderjulianmartinez/tablecensus/internal/log"
	"github.com/alexanderjulianmartinez/tablecensus/internal/sink/kafka"
	"github.com/alexanderjulianmartinez/tablecensus/internal/viewer"
)

func main() {
	// the launched viewer's chatter would interleave with our logs
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newCLI().rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		logrus.Errorf("tablecensus error: %v", err)
		os.Exit(1)
	}
}

type cli struct {
	v *viper.Viper
}

func newCLI() *cli {
	v := viper.New()
	v.SetEnvPrefix("tablecensus")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return &cli{v: v}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tablecensus",
		Short: "Report fact and dimension table row counts across database servers",
		Long: `tablecensus connects to each configured server, walks the databases whose
name starts with the configured prefix and writes the row counts of fact and
dimension tables to one CSV report per server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return log.Configure(logrus.StandardLogger(), cmd.ErrOrStderr(),
				c.v.GetString("log-level"), c.v.GetBool("debug"))
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to a tablecensus YAML config. Defaults reproduce the standard inventory.")
	flags.StringSlice("server", nil, "Server to inventory, repeatable. Replaces the configured server list.")
	flags.String("driver", "", "Database engine: mssql, mysql or postgres.")
	flags.String("output-dir", "", "Directory for reports. Defaults to the system temp directory.")
	flags.String("format", "", "Report format: legacy or rfc4180.")
	flags.Bool("no-open", false, "Do not open reports after writing them.")
	flags.Bool("keep-going", false, "Continue with the next server after a fatal error.")
	flags.StringP("log-level", "l", "info", "Log level: debug, info, warn, error.")
	flags.Bool("debug", false, "Debug logging with caller information, same as --log-level debug.")
	if err := c.v.BindPFlags(flags); err != nil {
		panic(err)
	}

	root.AddCommand(c.runCmd(), c.checkCmd())
	return root
}

func (c *cli) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Write row count reports for every server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opener, err := census.NewSQLOpener(cfg)
			if err != nil {
				return err
			}

			opts := []census.Option{census.WithLogger(logrus.StandardLogger())}
			if cfg.Open {
				opts = append(opts, census.WithLauncher(viewer.Desktop{}))
			}
			if cfg.Kafka.Enabled {
				pub := kafka.New(cfg.Kafka)
				defer func() {
					if err := pub.Close(); err != nil {
						logrus.WithError(err).Warn("close kafka writer")
					}
				}()
				opts = append(opts, census.WithPublisher(pub))
			}

			_, err = census.New(cfg, opener, opts...).Run(cmd.Context())
			return err
		},
	}
}

func (c *cli) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate config and list the databases a run would inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opener, err := census.NewSQLOpener(cfg)
			if err != nil {
				return err
			}

			checks, err := census.New(cfg, opener).Check(cmd.Context())
			out := cmd.OutOrStdout()
			for _, check := range checks {
				fmt.Fprintf(out, "%s: %d databases, %d matching %q\n",
					check.Server, check.Databases, len(check.Matching), cfg.DatabasePrefix)
				for _, name := range check.Matching {
					fmt.Fprintf(out, "  %s\n", name)
				}
			}
			return err
		},
	}
}

// loadConfig reads the config file, if any, then applies flag and
// TABLECENSUS_* environment overrides.
func (c *cli) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if path := c.v.GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if servers := serverNames(c.v.GetStringSlice("server")); len(servers) > 0 {
		cfg.Servers = cfg.Servers[:0]
		for _, name := range servers {
			cfg.Servers = append(cfg.Servers, config.Server{Name: name})
		}
	}
	if driver := c.v.GetString("driver"); driver != "" {
		cfg.Driver = driver
	}
	if dir := c.v.GetString("output-dir"); dir != "" {
		cfg.OutputDir = dir
	}
	if format := c.v.GetString("format"); format != "" {
		cfg.Format = format
	}
	if c.v.GetBool("no-open") {
		cfg.Open = false
	}
	if c.v.GetBool("keep-going") {
		cfg.ContinueOnError = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serverNames flattens comma-separated entries. Flags are already split by
// pflag but TABLECENSUS_SERVER only splits on whitespace.
func serverNames(values []string) []string {
	var names []string
	for _, value := range values {
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}
