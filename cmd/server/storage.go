package main

import (
	"context"
	"fmt"

	"github.com/ogurasousui/personnel-ledger/internal/adapters/repository/memory"
	"github.com/ogurasousui/personnel-ledger/internal/adapters/repository/postgres"
	"github.com/ogurasousui/personnel-ledger/internal/core/employee"
	"github.com/ogurasousui/personnel-ledger/internal/core/transfer"
	"github.com/ogurasousui/personnel-ledger/internal/platform/config"
	pg "github.com/ogurasousui/personnel-ledger/internal/platform/db/postgres"
)

type storage struct {
	employees employee.Repository
	transfers transfer.Repository
	tx        employee.TransactionManager
	ping      func(context.Context) error
	close     func()
}

func openStorage(ctx context.Context, cfg config.DatabaseConfig) (*storage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		return &storage{
			employees: memory.NewEmployeeRepository(store),
			transfers: memory.NewTransferRepository(store),
			tx:        memory.NewTransactionManager(store),
			ping:      func(context.Context) error { return nil },
			close:     func() {},
		}, nil
	case config.DriverPostgres:
		pool, err := pg.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("initialize database pool: %w", err)
		}
		return &storage{
			employees: postgres.NewEmployeeRepository(pool),
			transfers: postgres.NewTransferRepository(pool),
			tx:        pg.NewTransactionManager(pool),
			ping:      pool.Ping,
			close:     pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
