package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/sockctl/internal/client"
	"github.com/danmuck/sockctl/internal/logging"
)

const usage = `usage: sockctl [flags] <command> [key=value ...]

Values parse as JSON when possible, otherwise as strings:
  sockctl echo message=hello
  sockctl calculate operation=add a=10 b=5
  sockctl store key=name value='"John"'
  sockctl help
`

func main() {
	configPath := flag.String("config", "", "path to TOML client config (optional)")
	socketPath := flag.String("socket", "", "unix socket path override")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logging.ConfigureRuntime()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := client.DefaultConfig()
	if *configPath != "" {
		loaded, err := loadClientConfig(*configPath)
		if err != nil {
			fail(err)
		}
		cfg = loaded
	}
	if *socketPath != "" {
		cfg.SocketPath = *socketPath
	}

	data, err := parseArgs(args[1:])
	if err != nil {
		fail(err)
	}

	c := client.New(cfg)
	defer c.Close()

	resp, err := c.Send(context.Background(), args[0], data)
	if err != nil {
		fail(err)
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		fail(err)
	}
	fmt.Println(string(out))
	if !resp.Success {
		os.Exit(1)
	}
}

// parseArgs turns key=value pairs into the request data mapping. Values
// that parse as JSON keep their type; everything else is a string.
func parseArgs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	data := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err == nil {
			data[key] = parsed
		} else {
			data[key] = value
		}
	}
	return data, nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "sockctl: %v\n", err)
	os.Exit(1)
}
