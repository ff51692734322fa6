package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/learn2go-backend/internal/platform/logger"
	"github.com/yungbote/learn2go-backend/internal/realtime/bus"
)

type Clients struct {
	Bus bus.Bus
}

// wireClients picks the redis bus when REDIS_ADDR is set, otherwise messages stay in-process.
func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return Clients{Bus: bus.NewLocalBus()}, nil
	}
	b, err := bus.NewRedisBus(bus.RedisConfig{Addr: cfg.RedisAddr, Channel: cfg.RedisChannel}, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis bus: %w", err)
	}
	return Clients{Bus: b}, nil
}
