package config

import (
	"os"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/metric"
	"gopkg.in/yaml.v3"

	"github.com/anyproto/any-sync-didregistry/attribute"
	"github.com/anyproto/any-sync-didregistry/authorizer"
	"github.com/anyproto/any-sync-didregistry/chainclock"
	"github.com/anyproto/any-sync-didregistry/db"
	"github.com/anyproto/any-sync-didregistry/delegation"
)

const CName = "config"

func NewFromFile(path string) (c *Config, err error) {
	c = &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return
}

type Config struct {
	Mongo      db.Mongo          `yaml:"mongo"`
	Metric     metric.Config     `yaml:"metric"`
	Chain      chainclock.Config `yaml:"chain"`
	Delegation delegation.Config `yaml:"delegation"`
	Attribute  attribute.Config  `yaml:"attribute"`
	Authorizer authorizer.Config `yaml:"authorizer"`
}

func (c *Config) Init(a *app.App) (err error) {
	return
}

func (c Config) Name() (name string) {
	return CName
}

func (c Config) GetMongo() db.Mongo {
	return c.Mongo
}

func (c Config) GetMetric() metric.Config {
	return c.Metric
}

func (c Config) GetChain() chainclock.Config {
	return c.Chain
}

func (c Config) GetDelegation() delegation.Config {
	return c.Delegation
}

func (c Config) GetAttribute() attribute.Config {
	return c.Attribute
}

func (c Config) GetAuthorizer() authorizer.Config {
	return c.Authorizer
}
