package main

import (
	"context"
	"fmt"
	"os"

	"github.com/DomeLiquid/dsc"
	"github.com/DomeLiquid/dsc/config"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "dsc",
		Short:         "Inspect a collateralized debt engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "config file (yaml or toml)")
	root.AddCommand(
		kindsCommand(),
		accountCommand(),
		valueCommand(),
		historyCommand(),
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openApp() (*dsc.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return dsc.Open(cfg)
}
