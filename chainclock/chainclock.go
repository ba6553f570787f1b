package chainclock

import (
	"sync"
	"time"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"go.uber.org/zap"
)

const CName = "didregistry.chainclock"

var log = logger.NewNamed(CName)

const defaultBlockIntervalSec = 6

type Config struct {
	// GenesisUnix is the unix timestamp of block 0, zero means the unix epoch
	GenesisUnix int64 `yaml:"genesisUnix"`
	// BlockIntervalSec is the duration of one block in seconds
	BlockIntervalSec int `yaml:"blockIntervalSec"`
}

type configProvider interface {
	GetChain() Config
}

// ChainClock reports the current block height of the surrounding runtime.
// Every registry operation reads the height once at its start and treats it
// as an immutable input for the whole operation.
type ChainClock interface {
	app.Component
	Head() uint64
}

func New() ChainClock {
	return &chainClock{}
}

type chainClock struct {
	genesis  time.Time
	interval time.Duration

	mu   sync.Mutex
	last uint64
}

func (c *chainClock) Init(a *app.App) (err error) {
	conf := a.MustComponent("config").(configProvider).GetChain()
	if conf.BlockIntervalSec <= 0 {
		conf.BlockIntervalSec = defaultBlockIntervalSec
	}
	c.genesis = time.Unix(conf.GenesisUnix, 0)
	c.interval = time.Duration(conf.BlockIntervalSec) * time.Second
	log.Info("chain clock configured",
		zap.Int64("genesisUnix", conf.GenesisUnix),
		zap.Int("blockIntervalSec", conf.BlockIntervalSec))
	return
}

func (c *chainClock) Name() (name string) {
	return CName
}

func (c *chainClock) Head() uint64 {
	var head uint64
	if elapsed := time.Since(c.genesis); elapsed > 0 {
		head = uint64(elapsed / c.interval)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// wall clock may step back, the head never does
	if head < c.last {
		return c.last
	}
	c.last = head
	return head
}

// NewManual returns a clock driven entirely by Set calls. Embedding runtimes
// that track their own height and tests use it in place of the derived clock.
func NewManual(head uint64) *Manual {
	return &Manual{head: head}
}

type Manual struct {
	mu   sync.Mutex
	head uint64
}

func (m *Manual) Init(a *app.App) (err error) {
	return
}

func (m *Manual) Name() (name string) {
	return CName
}

func (m *Manual) Head() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.head
}

func (m *Manual) Set(head uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.head = head
}
