package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// NetAddress holds structured network address data for host and port.
// It implements the pflag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// parseFlags parses the command-line arguments (without the program name).
//
// Flags:
//
//	-a, --address              stats endpoint address in format [host]:[port]
//	-d, --db                   SQLite database path
//	    --cookie-path          cookie jar file path
//	    --cookie-expiry        cookie entry lifetime (e.g. "168h")
//	    --secondary            secondary backend: cookie|keyring
//	    --keyring-service      OS keychain service name
//	    --seal-key             key used to seal cookie jar values
//	    --debounce-delay       debounce window (e.g. "300ms")
//	    --high-priority-delay  debounce window for high priority writes
//	    --max-retries          retry passes before an operation is dropped
//	    --retry-delay          backoff before a retry pass
//	    --enable-fallback      use the in-memory fallback backend
//	    --batch-size           operations per batch
//	    --sweep-interval       cookie jar sweep interval
//	-c, --config               json file path with configs
//
// Flags that were not given on the command line leave their fields zero so
// they do not override other sources.
func parseFlags(args []string) (*StructuredConfig, error) {
	fs := pflag.NewFlagSet("authkeeper", pflag.ContinueOnError)

	var address NetAddress
	cfg := &StructuredConfig{}

	var maxRetries int
	var enableFallback bool

	fs.VarP(&address, "address", "a", "Stats endpoint address host:port")
	fs.StringVarP(&cfg.Storage.DB.DSN, "db", "d", "", "SQLite database path")
	fs.StringVar(&cfg.Storage.Cookie.Path, "cookie-path", "", "Cookie jar file path")
	fs.DurationVar(&cfg.Storage.Cookie.Expiry, "cookie-expiry", 0, "Cookie entry lifetime (e.g. 168h)")
	fs.StringVar(&cfg.Storage.Secondary, "secondary", "", "Secondary backend: cookie|keyring")
	fs.StringVar(&cfg.Storage.Keyring.Service, "keyring-service", "", "OS keychain service name")
	fs.StringVar(&cfg.App.SealKey, "seal-key", "", "Cookie jar seal key")
	fs.StringVar(&cfg.App.LogFile, "log-file", "", "Log file path")
	fs.DurationVar(&cfg.Sync.DebounceDelay, "debounce-delay", 0, "Debounce window (e.g. 300ms)")
	fs.DurationVar(&cfg.Sync.HighPriorityDelay, "high-priority-delay", 0, "Debounce window for high priority writes")
	fs.IntVar(&maxRetries, "max-retries", 0, "Retry passes before an operation is dropped")
	fs.DurationVar(&cfg.Sync.RetryDelay, "retry-delay", 0, "Backoff before a retry pass")
	fs.BoolVar(&enableFallback, "enable-fallback", true, "Use the in-memory fallback backend")
	fs.IntVar(&cfg.Sync.BatchSize, "batch-size", 0, "Operations per batch")
	fs.DurationVar(&cfg.Workers.SweepInterval, "sweep-interval", 0, "Cookie jar sweep interval")
	fs.StringVarP(&cfg.JSONFilePath, "config", "c", "", "JSON config file path")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	cfg.Server.HTTPAddress = address.String()
	if fs.Changed("max-retries") {
		cfg.Sync.MaxRetries = &maxRetries
	}
	if fs.Changed("enable-fallback") {
		cfg.Sync.EnableFallback = &enableFallback
	}

	return cfg, nil
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Type implements pflag.Value.
func (a *NetAddress) Type() string {
	return "host:port"
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is
// "localhost", and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 || port > 65535 {
		return errors.New("port number must be in range 1-65535")
	}

	if host != "localhost" && host != "" {
		if ip := net.ParseIP(host); ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
