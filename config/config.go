package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"time"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

func New(loc string) (*Config, error) {
	var c Config

	f, err := os.Open(loc)
	if err != nil {
		log.Println("Config error", err)
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&c); err != nil {
		log.Println("Config error", err)
		return nil, err
	}

	if err := c.check(); err != nil {
		return nil, err
	}

	return &c, nil
}

type Config struct {
	Host    string `json:"host"`
	Port    string `json:"port"`
	Sandbox bool   `json:"sandbox"`

	// Opening balance for the demo accounts created on a fresh
	// sandbox store
	SeedBalance int64 `json:"seedBalance"`

	DBPath string `json:"dbPath"`
	DBName string `json:"dbName"`

	CacheUpdate time.Duration `json:"cacheUpdate"` // In minutes

	Bucket struct {
		User         string   `json:"user"`
		Campaign     string   `json:"campaign"`
		Wallet       string   `json:"wallet"`
		Notification string   `json:"notification"`
		All          []string `json:"all"`
	} `json:"bucket"`
}

func (c *Config) check() error {
	if c.Port == "" || c.DBName == "" {
		return ErrInvalidConfig
	}
	if c.Bucket.User == "" || c.Bucket.Campaign == "" || c.Bucket.Wallet == "" || c.Bucket.Notification == "" {
		return ErrInvalidConfig
	}
	c.Bucket.All = []string{c.Bucket.User, c.Bucket.Campaign, c.Bucket.Wallet, c.Bucket.Notification}
	return nil
}
