// Command walletctl is an interactive client for the wallet
// authentication API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fmitra/walletauth/internal/apiclient"
	"github.com/fmitra/walletauth/internal/credcache"
	"github.com/fmitra/walletauth/internal/monitor"
)

const usage = `Usage: walletctl [flags] <command>

Commands:
  login     log in, entering a code if one is required
  signup    create an account
  profile   show the logged in account
  logout    end the session
  shell     interactive session that ends after inactivity

Flags:
`

func main() {
	os.Exit(run())
}

func run() int {
	var err error

	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	}

	defaultDir := "."
	if dir, err := os.UserConfigDir(); err == nil {
		defaultDir = filepath.Join(dir, "walletctl")
	}

	var configPath string
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	{
		fs.Bool("debug", false, "Enable debug logging")
		fs.String("server", "http://localhost:8080", "API server address")
		fs.String("cache-path", filepath.Join(defaultDir, "cache.db"), "Credential cache file")
		fs.String("history-path", filepath.Join(defaultDir, "history"), "Shell history file")
		fs.Duration("idle-timeout", 30*time.Minute, "Inactivity before the shell session expires")
		fs.Duration("request-timeout", 15*time.Second, "API request timeout")
		fs.StringVar(&configPath, "config", "", "Path to the config file")

		fs.Usage = func() {
			fmt.Fprint(os.Stderr, usage)
			fs.PrintDefaults()
		}
		err = fs.Parse(os.Args[1:])
		if err == flag.ErrHelp {
			return 0
		}
		if err != nil {
			return 2
		}
	}

	if _, err = os.Stat(configPath); configPath != "" && !os.IsNotExist(err) {
		viper.SetConfigFile(configPath)
		if err = viper.ReadInConfig(); err != nil {
			logger.Log("message", "failed to load config file", "error", err, "source", "cmd/walletctl")
			return 1
		}
	}
	viper.SetEnvPrefix("walletctl")
	viper.AutomaticEnv()
	if err = viper.BindPFlags(fs); err != nil {
		logger.Log("message", "failed to load cli flags", "error", err, "source", "cmd/walletctl")
		return 1
	}

	if viper.GetBool("debug") {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowWarn())
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	store, err := credcache.OpenSQLiteStore(viper.GetString("cache-path"))
	if err != nil {
		logger.Log("message", "failed to open credential cache", "error", err, "source", "cmd/walletctl")
		return 1
	}
	defer store.Close()

	cache := credcache.New(store, credcache.WithLogger(logger))
	client := apiclient.New(
		viper.GetString("server"),
		cache,
		apiclient.WithLogger(logger),
		apiclient.WithHTTPClient(&http.Client{Timeout: viper.GetDuration("request-timeout")}),
	)

	historyPath := ""
	if fs.Arg(0) == "shell" {
		historyPath = viper.GetString("history-path")
	}
	prompt := newPrompter(historyPath)
	defer func() {
		if err := prompt.Close(); err != nil {
			level.Debug(logger).Log("message", "failed to save history", "error", err, "source", "cmd/walletctl")
		}
	}()

	c := &cli{
		client: client,
		prompt: prompt,
		monitor: monitor.New(
			cache,
			monitor.WithLogger(logger),
			monitor.WithTimeout(viper.GetDuration("idle-timeout")),
		),
		out:    os.Stdout,
		logger: logger,
	}

	ctx := context.Background()
	switch fs.Arg(0) {
	case "login":
		err = c.login(ctx)
	case "signup":
		err = c.signUp(ctx)
	case "profile":
		err = c.profile(ctx)
	case "logout":
		err = c.logout(ctx)
	case "shell":
		err = c.shell(ctx)
	default:
		fs.Usage()
		return 2
	}

	if err == errAborted {
		return 130
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, userMessage(err))
		level.Debug(logger).Log("message", "command failed", "command", fs.Arg(0), "error", err, "source", "cmd/walletctl")
		return 1
	}

	return 0
}
