package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind          string
	hostPassword  string
	judgeModel    string
	judgeURL      string
	openAIKey     string
	port          int
	prefix        string
	profile       bool
	questions     string
	roomRetention time.Duration
	sweepInterval time.Duration
	tlsCert       string
	tlsKey        string
	verbose       bool
	version       bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.hostPassword == "" {
		return errors.New("a host password must be set via --host-password or FEUDBOX_HOST_PASSWORD")
	}
	if c.sweepInterval < time.Minute {
		return fmt.Errorf("sweep interval too short (minimum 1m): %s", c.sweepInterval)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("FEUDBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "feudbox",
		Short:         "A live multi-room Family-Feud-style trivia show server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: FEUDBOX_BIND)")
	fs.StringVar(&cfg.hostPassword, "host-password", "", "shared password for host logins (env: FEUDBOX_HOST_PASSWORD)")
	fs.StringVar(&cfg.judgeModel, "judge-model", "gpt-4o-mini", "model used to judge answers (env: FEUDBOX_JUDGE_MODEL)")
	fs.StringVar(&cfg.judgeURL, "judge-url", "https://api.openai.com/v1/chat/completions", "chat completions endpoint for the answer judge (env: FEUDBOX_JUDGE_URL)")
	fs.StringVar(&cfg.openAIKey, "openai-api-key", "", "API key for the answer judge (env: FEUDBOX_OPENAI_API_KEY)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: FEUDBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: FEUDBOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: FEUDBOX_PROFILE)")
	fs.StringVar(&cfg.questions, "questions", "questions.csv", "path to the question bank CSV (env: FEUDBOX_QUESTIONS)")
	fs.DurationVar(&cfg.roomRetention, "room-retention", 60*time.Minute, "time before abandoned rooms are removed (env: FEUDBOX_ROOM_RETENTION)")
	fs.DurationVar(&cfg.sweepInterval, "sweep-interval", 60*time.Minute, "interval between abandoned room sweeps (env: FEUDBOX_SWEEP_INTERVAL)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: FEUDBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: FEUDBOX_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: FEUDBOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: FEUDBOX_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("feudbox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
