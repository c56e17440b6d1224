package uasset

import "encoding/binary"

// config holds the byte order and sniffer used by one reader or writer call.
type config struct {
	byteOrder binary.ByteOrder
	sniffer   Sniffer
}

// Option configures a reader or writer call.
type Option func(*config)

// WithByteOrder sets the byte order of every integer field. Cooked assets
// are little endian unless the target platform says otherwise.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(c *config) {
		if order != nil {
			c.byteOrder = order
		}
	}
}

// WithSniffer replaces the structure locator.
func WithSniffer(s Sniffer) Option {
	return func(c *config) {
		if s != nil {
			c.sniffer = s
		}
	}
}

func newConfig(opts []Option) *config {
	cfg := &config{
		byteOrder: binary.LittleEndian,
		sniffer:   PatternSniffer{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
