package orders

import (
	"fmt"
	"strings"

	"github.com/onetwoclick/rinkshots-backend/pkg/config"
	"gorm.io/gorm"
)

// NewLedgerFromConfig selects the ledger backend named by cfg.Driver.
func NewLedgerFromConfig(cfg config.LedgerConfig, store ledgerStore, conn *gorm.DB) (Ledger, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case config.LedgerDriverMemory:
		return NewMemoryLedger(), nil
	case "", config.LedgerDriverRedis:
		if store == nil {
			return nil, fmt.Errorf("ledger driver %q requires redis", config.LedgerDriverRedis)
		}
		return NewRedisLedger(store, cfg.DoneTTL)
	case config.LedgerDriverPostgres:
		if conn == nil {
			return nil, fmt.Errorf("ledger driver %q requires a database", config.LedgerDriverPostgres)
		}
		return NewGormLedger(conn)
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", cfg.Driver)
	}
}
