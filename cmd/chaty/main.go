package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/SandroBreaker/Chat.y/internal/app"
	"github.com/SandroBreaker/Chat.y/internal/config"
	"go.uber.org/fx"
)

func main() {
	configFlag := flag.String("config", "", "config file path (default ~/.chaty/config.toml)")
	flag.Parse()

	if err := config.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	path := *configFlag
	if path == "" {
		path = config.Path()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path, config.Default()); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "wrote starter config to %s; fill in platform_url and anon_key\n", path)
		os.Exit(1)
	}

	fx.New(
		app.Module(app.Params{ConfigPath: path}),
		fx.NopLogger,
	).Run()
}
