package types

import (
	"errors"
	"fmt"
	"time"
)

// Defaults applied when the corresponding Config field is zero.
const (
	DefaultPoolSize       = 5
	DefaultAcquireTimeout = 5 * time.Second
)

// StockPolicy decides whether a stock adjustment may drive stock below zero.
type StockPolicy string

// Supported stock policies.
const (
	// StockAllowNegative permits any resulting stock, including negative values.
	StockAllowNegative StockPolicy = "allow_negative"
	// StockFloorZero rejects adjustments whose result would be below zero.
	StockFloorZero StockPolicy = "floor_zero"
)

// Config holds the store location and pool parameters.
type Config struct {
	DBPath         string        `json:"db_path" yaml:"db_path"`
	PoolSize       int           `json:"pool_size" yaml:"pool_size"`
	AcquireTimeout time.Duration `json:"acquire_timeout" yaml:"acquire_timeout"`
	StockPolicy    StockPolicy   `json:"stock_policy" yaml:"stock_policy"`
}

// Config validation errors.
var (
	ErrDBPathEmpty           = errors.New("db path must not be empty")
	ErrPoolSizeInvalid       = errors.New("pool size must be positive")
	ErrAcquireTimeoutInvalid = errors.New("acquire timeout must be positive")
	ErrStockPolicyUnknown    = errors.New("unknown stock policy")
)

// WithDefaults returns a copy of c with zero fields replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.PoolSize == 0 {
		c.PoolSize = DefaultPoolSize
	}
	if c.AcquireTimeout == 0 {
		c.AcquireTimeout = DefaultAcquireTimeout
	}
	if c.StockPolicy == "" {
		c.StockPolicy = StockAllowNegative
	}
	return c
}

// Validate checks that the Config is well-formed. Defaults are not applied;
// call WithDefaults first when zero values should be accepted.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return ErrDBPathEmpty
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("%w: %d", ErrPoolSizeInvalid, c.PoolSize)
	}
	if c.AcquireTimeout <= 0 {
		return fmt.Errorf("%w: %s", ErrAcquireTimeoutInvalid, c.AcquireTimeout)
	}
	switch c.StockPolicy {
	case StockAllowNegative, StockFloorZero:
	default:
		return fmt.Errorf("%w: %q", ErrStockPolicyUnknown, c.StockPolicy)
	}
	return nil
}
