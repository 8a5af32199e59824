package backend

import (
	"fmt"
	"net"
	"strconv"

	"github.com/genricoloni/synthia/internal/backend/mocp"
	"github.com/genricoloni/synthia/internal/backend/mpd"
	"github.com/genricoloni/synthia/internal/backend/xmms2"
	"github.com/genricoloni/synthia/internal/config"
	"github.com/genricoloni/synthia/internal/domain"
	"go.uber.org/zap"
)

// New builds the backend selected by cfg.Backend
func New(cfg *config.Config, tags domain.TagReader, logger *zap.Logger) (domain.Backend, error) {
	logger = logger.Named("backend")

	switch cfg.Backend {
	case domain.BackendMocp:
		return mocp.New(cfg.Mocp.Socket, cfg.Timeout, tags, logger), nil

	case domain.BackendMPD:
		network, addr := "tcp", net.JoinHostPort(cfg.MPD.Address, strconv.Itoa(cfg.MPD.Port))
		if cfg.MPD.Socket != "" {
			network, addr = "unix", cfg.MPD.Socket
		}
		return mpd.New(network, addr, cfg.MPD.Password, logger), nil

	case domain.BackendXmms2:
		return xmms2.New(cfg.Xmms2Socket(), cfg.Timeout, logger), nil
	}

	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBackend, cfg.Backend)
}
