package service

import (
	"famledger/internal/capability"
	"famledger/internal/config"
	"famledger/internal/crypto"
	"famledger/internal/logger"
	"famledger/internal/store"
	"famledger/internal/syncfile"
)

type Services struct {
	SyncOrchestrator      SyncOrchestrator
	RecurringMaterializer RecurringMaterializer

	// Passwords is the session-scoped password holder shared with the
	// orchestrator. The UI feeds it before an encrypted save or load and
	// clears it when the user logs the family profile out.
	Passwords *crypto.SessionKeyCache
}

func NewServices(storages *store.Storages, provider capability.Provider, cfg config.Sync, logger *logger.Logger) *Services {
	passwords := crypto.NewSessionKeyCache()

	return &Services{
		SyncOrchestrator: NewSyncOrchestrator(
			provider,
			storages.Repository,
			storages.CapabilitySlot,
			storages.Settings,
			syncfile.NewSnapshotCodec(),
			crypto.NewCodec(),
			passwords,
			cfg,
			logger,
		),
		RecurringMaterializer: NewRecurringMaterializer(storages.Repository, logger),
		Passwords:             passwords,
	}
}
