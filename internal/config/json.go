package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON tags and
// string-friendly durations.
type StructuredJSONConfig struct {
	App struct {
		SealKey string `json:"seal_key"`
		Version string `json:"version"`
		LogFile string `json:"log_file"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`

		Cookie struct {
			Path         string   `json:"path"`
			Expiry       Duration `json:"expiry"`
			MaxValueSize int      `json:"max_value_size"`
		} `json:"cookie,omitempty"`

		Keyring struct {
			Service string `json:"service"`
		} `json:"keyring,omitempty"`

		Secondary string `json:"secondary"`
	} `json:"storage,omitempty"`

	Sync struct {
		DebounceDelay         Duration `json:"debounce_delay"`
		HighPriorityDelay     Duration `json:"high_priority_delay"`
		MaxRetries            *int     `json:"max_retries"`
		RetryDelay            Duration `json:"retry_delay"`
		EnableFallback        *bool    `json:"enable_fallback"`
		BatchSize             int      `json:"batch_size"`
		EnableCompression     bool     `json:"enable_compression"`
		MinSuccessfulBackends int      `json:"min_successful_backends"`
	} `json:"sync,omitempty"`

	Server struct {
		HTTPAddress string `json:"http_address"`
	} `json:"server,omitempty"`

	Workers struct {
		SweepInterval Duration `json:"sweep_interval"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			SealKey: jsonCfg.App.SealKey,
			Version: jsonCfg.App.Version,
			LogFile: jsonCfg.App.LogFile,
		},
		Storage: Storage{
			DB: DB{DSN: jsonCfg.Storage.DB.DSN},
			Cookie: Cookie{
				Path:         jsonCfg.Storage.Cookie.Path,
				Expiry:       time.Duration(jsonCfg.Storage.Cookie.Expiry),
				MaxValueSize: jsonCfg.Storage.Cookie.MaxValueSize,
			},
			Keyring:   Keyring{Service: jsonCfg.Storage.Keyring.Service},
			Secondary: jsonCfg.Storage.Secondary,
		},
		Sync: Sync{
			DebounceDelay:         time.Duration(jsonCfg.Sync.DebounceDelay),
			HighPriorityDelay:     time.Duration(jsonCfg.Sync.HighPriorityDelay),
			MaxRetries:            jsonCfg.Sync.MaxRetries,
			RetryDelay:            time.Duration(jsonCfg.Sync.RetryDelay),
			EnableFallback:        jsonCfg.Sync.EnableFallback,
			BatchSize:             jsonCfg.Sync.BatchSize,
			EnableCompression:     jsonCfg.Sync.EnableCompression,
			MinSuccessfulBackends: jsonCfg.Sync.MinSuccessfulBackends,
		},
		Server:  Server{HTTPAddress: jsonCfg.Server.HTTPAddress},
		Workers: Workers{SweepInterval: time.Duration(jsonCfg.Workers.SweepInterval)},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling
// from strings like "1h", "300ms" as well as plain nanosecond numbers.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
