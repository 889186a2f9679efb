package otghs

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ardnew/otghs/pkg"
)

// MaxEndpointsHW is the number of endpoints per direction implemented by the
// core.
const MaxEndpointsHW = 6

// Hardware FIFO constraints, in 32-bit words.
const (
	minFIFODepth   = 16
	totalFIFOWords = 1024
)

// Config holds the controller sizing and polling parameters.
type Config struct {
	// MaxInEndpoints and MaxOutEndpoints size the endpoint tables.
	MaxInEndpoints  int `yaml:"max_in_endpoints"`
	MaxOutEndpoints int `yaml:"max_out_endpoints"`

	// RxFIFODepth is the shared receive FIFO depth in words.
	RxFIFODepth uint32 `yaml:"rx_fifo_depth"`

	// TxFIFO0Depth is the control endpoint transmit FIFO depth in words.
	TxFIFO0Depth uint32 `yaml:"tx_fifo0_depth"`

	// FIFOWords is the total data FIFO RAM in words.
	FIFOWords uint32 `yaml:"fifo_words"`

	// RegCheckTimeout bounds register polls on control and reset bits.
	RegCheckTimeout int `yaml:"reg_check_timeout"`

	// FIFOWaitLimit bounds polls on transmit FIFO free space.
	FIFOWaitLimit int `yaml:"fifo_wait_limit"`

	// LinkedNAK extends NAK and ACK requests on a non-zero IN endpoint to
	// the OUT endpoint with the same number.
	LinkedNAK bool `yaml:"linked_nak"`
}

// DefaultConfig returns the STM32F4 OTG_HS sizing: 512-byte receive FIFO,
// eight 64-byte control packets of transmit FIFO, 4 KiB of FIFO RAM.
func DefaultConfig() Config {
	return Config{
		MaxInEndpoints:  MaxEndpointsHW,
		MaxOutEndpoints: 4,
		RxFIFODepth:     128,
		TxFIFO0Depth:    128,
		FIFOWords:       totalFIFOWords,
		RegCheckTimeout: 50,
		FIFOWaitLimit:   4096,
	}
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: config: %w", pkg.ErrInvalidParameter, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.MaxInEndpoints < 1 || c.MaxInEndpoints > MaxEndpointsHW:
		return fmt.Errorf("%w: max_in_endpoints %d not in [1,%d]", pkg.ErrInvalidParameter, c.MaxInEndpoints, MaxEndpointsHW)
	case c.MaxOutEndpoints < 1 || c.MaxOutEndpoints > MaxEndpointsHW:
		return fmt.Errorf("%w: max_out_endpoints %d not in [1,%d]", pkg.ErrInvalidParameter, c.MaxOutEndpoints, MaxEndpointsHW)
	case c.RxFIFODepth < minFIFODepth || c.RxFIFODepth > fifoFieldMask:
		return fmt.Errorf("%w: rx_fifo_depth %d", pkg.ErrInvalidParameter, c.RxFIFODepth)
	case c.TxFIFO0Depth < minFIFODepth || c.TxFIFO0Depth > fifoFieldMask:
		return fmt.Errorf("%w: tx_fifo0_depth %d", pkg.ErrInvalidParameter, c.TxFIFO0Depth)
	case c.FIFOWords < c.RxFIFODepth+c.TxFIFO0Depth:
		return fmt.Errorf("%w: fifo_words %d below rx+tx0 depth %d", pkg.ErrInvalidParameter, c.FIFOWords, c.RxFIFODepth+c.TxFIFO0Depth)
	case c.RegCheckTimeout < 1:
		return fmt.Errorf("%w: reg_check_timeout %d", pkg.ErrInvalidParameter, c.RegCheckTimeout)
	case c.FIFOWaitLimit < 1:
		return fmt.Errorf("%w: fifo_wait_limit %d", pkg.ErrInvalidParameter, c.FIFOWaitLimit)
	}
	return nil
}
