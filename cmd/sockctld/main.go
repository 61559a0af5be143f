package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/sockctl/internal/config"
	"github.com/danmuck/sockctl/internal/logging"
	"github.com/danmuck/sockctl/internal/observability"
	"github.com/danmuck/sockctl/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config (optional)")
	socketPath := flag.String("socket", "", "unix socket path override")
	adminAddr := flag.String("admin", "", "admin HTTP listen addr override")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg := config.DefaultServerConfig()
	if *configPath != "" {
		loaded, err := config.LoadServerConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sockctld: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *socketPath != "" {
		cfg.SocketPath = *socketPath
	}
	if *adminAddr != "" {
		cfg.AdminAddr = *adminAddr
	}

	observability.InitLogger(cfg.Name)

	svc, err := server.NewService(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sockctld: %v\n", err)
		os.Exit(1)
	}
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "sockctld: %v\n", err)
		os.Exit(1)
	}
}
