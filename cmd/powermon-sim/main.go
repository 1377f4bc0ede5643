package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/powermon/internal/config"
	"github.com/danmuck/powermon/internal/devicesim"
	"github.com/danmuck/powermon/internal/logging"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "powermon-sim: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	logging.ConfigureRuntime()

	flags := pflag.NewFlagSet("powermon-sim", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to a simulator TOML config")
	addr := flags.String("addr", ":8081", "listen address")
	token := flags.String("token", "", "require this access token")
	if err := flags.Parse(args); err != nil {
		return err
	}

	devCfg := devicesim.DefaultConfig()
	listen := *addr
	if strings.TrimSpace(*configPath) != "" {
		fileCfg, err := config.LoadSimulatorConfig(*configPath)
		if err != nil {
			return err
		}
		devCfg = config.SimulatorDevice(fileCfg)
		if !flags.Changed("addr") {
			listen = fileCfg.Addr
		}
	}
	if flags.Changed("token") {
		devCfg.Token = *token
	}

	sim, err := devicesim.NewServer(devCfg, nil)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return sim.ListenAndServe(ctx, listen)
}
