package server

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

const DefaultAddr = ":9090"

type Config struct {
	Addr string
}

// NewConfig validates addr and returns a server config. An empty addr uses
// DefaultAddr.
func NewConfig(addr string) (*Config, error) {
	if addr == "" {
		addr = DefaultAddr
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid metrics address %q: %w", addr, err)
	}
	if err := validatePort(port); err != nil {
		return nil, fmt.Errorf("invalid port: %w", err)
	}
	return &Config{Addr: addr}, nil
}

func validatePort(port string) error {
	portNum, err := strconv.Atoi(port)

	if err != nil {
		return errors.New("port must be a number")
	}

	if portNum < 0 || portNum > 65535 {
		return errors.New("port must be between 0 and 65535")
	}

	return nil
}
