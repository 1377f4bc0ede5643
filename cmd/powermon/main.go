package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/powermon/internal/logging"
	"github.com/danmuck/powermon/internal/monitor"
	"github.com/spf13/pflag"
)

const tokenEnv = "POWERMON_TOKEN"

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "powermon: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	logging.ConfigureRuntime()

	flags := pflag.NewFlagSet("powermon", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to a powermon TOML config")
	origin := flags.StringP("origin", "o", "", "device origin, e.g. http://192.168.4.1")
	token := flags.String("token", "", "device access token (default $"+tokenEnv+")")
	listen := flags.String("listen", "", "HTTP API listen address; empty string disables it")
	stdin := flags.Bool("stdin", false, "forward stdin lines to the device UART")
	quiet := flags.BoolP("quiet", "q", false, "do not render readouts to stdout")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := resolveConfig(*configPath)
	if err != nil {
		return err
	}
	if flags.Changed("origin") {
		cfg.Session.Origin = strings.TrimSpace(*origin)
	}
	if flags.Changed("token") {
		cfg.Session.Token = *token
	}
	if cfg.Session.Token == "" {
		cfg.Session.Token = os.Getenv(tokenEnv)
	}
	if flags.Changed("listen") {
		cfg.ListenAddr = strings.TrimSpace(*listen)
	}
	if flags.Changed("stdin") {
		cfg.ForwardInput = *stdin
	}
	if *quiet {
		cfg.ConsoleReadout = false
	}

	svc, err := monitor.NewServiceWithConfig(cfg, monitor.Deps{
		Terminal: os.Stdout,
		Console:  os.Stdout,
		Input:    os.Stdin,
	})
	if err != nil {
		return err
	}
	return svc.Run()
}

func resolveConfig(path string) (monitor.ServiceConfig, error) {
	if strings.TrimSpace(path) == "" {
		return monitor.DefaultServiceConfig(), nil
	}
	return loadServiceConfig(path)
}
