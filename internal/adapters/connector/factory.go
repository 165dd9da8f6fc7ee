package connector

import (
	"fmt"

	"github.com/sensei-hq/sensei/internal/config"
)

// New maps a system-type tag plus credentials/config to the correct
// adapter. Unknown tags fail with ErrUnsupportedSystem.
func New(name string, cfg config.SystemConfig, opts ...Option) (Connector, error) {
	switch SystemType(cfg.Type) {
	case TypeHRIS:
		return NewPostgres(name, cfg, opts...), nil
	case TypeDocument:
		return NewMongo(name, cfg, opts...), nil
	case TypeBus:
		return NewBus(name, cfg, opts...), nil
	case TypeERP:
		return NewERP(name, cfg, opts...), nil
	case TypeBI:
		return NewBI(name, cfg, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSystem, cfg.Type)
	}
}
