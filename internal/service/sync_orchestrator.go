// SPDX-License-Identifier: Apache-2.0
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"famledger/internal/capability"
	"famledger/internal/config"
	"famledger/internal/crypto"
	"famledger/internal/logger"
	"famledger/internal/store"
	"famledger/internal/syncfile"
	"famledger/internal/workers"
	"famledger/models"
)

// syncOrchestrator is the single owner of the sync session. All mutable
// session state lives on this struct; nothing is package-level, so two
// orchestrators in one process (tests do this constantly) never interfere.
//
// Two locks with distinct jobs: opMu serializes the long file operations
// (Save, Load, permission flows) so at most one touches the sync file at a
// time, stateMu guards the externally visible snapshot fields. Subscriber
// callbacks always run outside both locks.
type syncOrchestrator struct {
	provider  capability.Provider
	slot      store.CapabilitySlot
	settings  store.SettingsStore
	repo      store.Repository
	codec     syncfile.SnapshotCodec
	cipher    crypto.Codec
	passwords *crypto.SessionKeyCache
	scheduler workers.SaveScheduler

	retryLimit int
	logger     *logger.Logger

	opMu sync.Mutex

	stateMu          sync.Mutex
	state            State
	reason           string
	readOnlyPending  bool
	offerFallback    bool
	capDesc          *models.Capability
	handle           capability.Handle
	passwordFailures int
	subscribers      map[int]func(StateSnapshot)
	nextSubscriber   int
}

// NewSyncOrchestrator wires the orchestrator and its debounced save
// scheduler. The scheduler's save function is the orchestrator's own Save,
// so bursts of ScheduleSave calls collapse into single file writes.
func NewSyncOrchestrator(
	provider capability.Provider,
	repo store.Repository,
	slot store.CapabilitySlot,
	settings store.SettingsStore,
	codec syncfile.SnapshotCodec,
	cipher crypto.Codec,
	passwords *crypto.SessionKeyCache,
	cfg config.Sync,
	log *logger.Logger,
) SyncOrchestrator {
	o := &syncOrchestrator{
		provider:    provider,
		slot:        slot,
		settings:    settings,
		repo:        repo,
		codec:       codec,
		cipher:      cipher,
		passwords:   passwords,
		retryLimit:  cfg.PasswordRetryLimit,
		logger:      log,
		state:       StateUninitialized,
		subscribers: make(map[int]func(StateSnapshot)),
	}
	o.scheduler = workers.NewDebouncedSaver(o.debouncedSave, cfg.DebounceInterval, log)
	return o
}

func (o *syncOrchestrator) Initialize(ctx context.Context) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if !o.provider.Supported() {
		o.logger.Info().Str("func", "Initialize").Msg("scoped storage not supported on this platform, running cache-only")
		o.transition(func(s *sessionState) {
			s.state = StateNotConfigured
		})
		return nil
	}

	capDesc, err := o.slot.Restore(ctx)
	if err != nil {
		o.transition(func(s *sessionState) {
			s.state = StateError
			s.reason = "could not read stored storage settings"
		})
		return fmt.Errorf("restore capability: %w", err)
	}
	if capDesc == nil {
		o.transition(func(s *sessionState) {
			s.state = StateNotConfigured
		})
		return nil
	}

	handle, err := o.provider.Restore(*capDesc)
	if err != nil {
		// The descriptor points somewhere this provider can no longer
		// open. The grant is gone; the user has to pick again.
		o.logger.Warn().Err(err).Str("func", "Initialize").Msg("stored capability could not be restored")
		o.transition(func(s *sessionState) {
			s.state = StateNotConfigured
		})
		return nil
	}

	scope := handle.CurrentScope()
	o.transition(func(s *sessionState) {
		s.capDesc = capDesc
		s.handle = handle
		if scope.AllowsWrite() {
			s.state = StateReady
		} else {
			s.state = StateNeedsPermission
			s.reason = "storage access needs to be re-granted"
		}
	})

	o.logger.Info().
		Str("func", "Initialize").
		Str("capability", capDesc.DisplayName).
		Str("scope", string(scope)).
		Bool("encrypted", capDesc.EncryptionEnabled).
		Msg("sync session initialized")
	return nil
}

func (o *syncOrchestrator) RequestPermission(ctx context.Context, userGesture bool) error {
	if !userGesture {
		return ErrNoUserGesture
	}

	o.opMu.Lock()

	handle := o.currentHandle()
	if handle == nil {
		o.opMu.Unlock()
		return ErrNotReady
	}

	granted, err := handle.RequestScope(ctx, models.ScopeReadWrite)
	if err != nil {
		o.opMu.Unlock()
		return fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	if !granted {
		o.transition(func(s *sessionState) {
			s.state = StateNeedsPermission
			s.reason = "storage access was declined"
		})
		o.opMu.Unlock()
		return ErrPermissionDenied
	}

	wasPending := false
	o.transition(func(s *sessionState) {
		wasPending = s.readOnlyPending
		s.readOnlyPending = false
		s.state = StateReady
		s.reason = ""
	})
	o.opMu.Unlock()

	if wasPending {
		// The session has been running read-only off the cache; the file
		// may have moved on in the meantime, and the file wins.
		return o.Load(ctx, "")
	}
	return nil
}

func (o *syncOrchestrator) SelectOrCreateStorage(ctx context.Context, req capability.PickRequest) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	handle, capDesc, err := o.provider.Pick(ctx, req)
	if errors.Is(err, capability.ErrCancelled) {
		o.logger.Debug().Str("func", "SelectOrCreateStorage").Msg("storage selection cancelled")
		return nil
	}
	if err != nil {
		return fmt.Errorf("pick storage: %w", err)
	}

	st, err := o.settings.Settings(ctx)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	capDesc.EncryptionEnabled = st.EncryptionEnabled

	// Picking a location is the user turning sync on. Auto-sync defaults on
	// with it and can be switched off separately.
	st.SyncEnabled = true
	st.AutoSyncEnabled = true
	if err := o.settings.SaveSettings(ctx, st); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	if err := o.slot.Persist(ctx, capDesc); err != nil {
		return fmt.Errorf("persist capability: %w", err)
	}

	o.transition(func(s *sessionState) {
		s.capDesc = &capDesc
		s.handle = handle
		s.state = StateReady
		s.reason = ""
		s.readOnlyPending = false
		s.offerFallback = false
		s.passwordFailures = 0
	})

	o.logger.Info().
		Str("func", "SelectOrCreateStorage").
		Str("capability", capDesc.DisplayName).
		Msg("storage selected")

	// A freshly created (empty) file is seeded from the cache right away so
	// the location is never left blank. A file with existing contents is
	// left for Load, which may need a password.
	contents, err := handle.Read(ctx)
	if err == nil && len(contents) == 0 {
		return o.saveLocked(ctx)
	}
	return nil
}

func (o *syncOrchestrator) Save(ctx context.Context) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()
	return o.saveLocked(ctx)
}

// saveLocked runs one save. Callers hold opMu.
func (o *syncOrchestrator) saveLocked(ctx context.Context) error {
	o.stateMu.Lock()
	state, handle := o.state, o.handle
	o.stateMu.Unlock()

	if state != StateReady || handle == nil {
		return ErrNotReady
	}

	st, err := o.settings.Settings(ctx)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	if !st.SyncEnabled {
		o.logger.Debug().Str("func", "Save").Msg("sync disabled, skipping save")
		return ErrNotReady
	}

	// Scope can be revoked externally between saves; re-check right before
	// touching the file instead of trusting the last probe.
	if !handle.CurrentScope().AllowsWrite() {
		o.transition(func(s *sessionState) {
			s.state = StateNeedsPermission
			s.reason = "storage access was revoked"
		})
		return ErrPermissionDenied
	}

	o.transition(func(s *sessionState) { s.state = StateSaving })

	err = o.writeSnapshot(ctx, handle, st)
	if err != nil {
		o.transition(func(s *sessionState) {
			switch {
			case errors.Is(err, ErrPasswordRequired):
				s.state = StateReady
			case errors.Is(err, ErrPermissionDenied):
				s.state = StateNeedsPermission
				s.reason = "storage access was revoked"
			default:
				// Transient; the session stays operational and the next
				// debounce cycle or a manual save retries.
				s.state = StateReady
				s.reason = "save failed, will retry"
			}
		})
		return err
	}

	o.refreshCapabilityEncryption(ctx, st.EncryptionEnabled)

	o.transition(func(s *sessionState) {
		s.state = StateReady
		s.reason = ""
	})
	return nil
}

// refreshCapabilityEncryption re-persists the capability descriptor when the
// user toggled encryption since the grant, so the next session knows up front
// whether the location expects a password.
func (o *syncOrchestrator) refreshCapabilityEncryption(ctx context.Context, encrypted bool) {
	o.stateMu.Lock()
	capDesc := o.capDesc
	o.stateMu.Unlock()

	if capDesc == nil || capDesc.EncryptionEnabled == encrypted {
		return
	}

	updated := *capDesc
	updated.EncryptionEnabled = encrypted
	if err := o.slot.Persist(ctx, updated); err != nil {
		o.logger.Warn().Err(err).Str("func", "refreshCapabilityEncryption").Msg("could not update capability descriptor")
		return
	}

	o.stateMu.Lock()
	o.capDesc = &updated
	o.stateMu.Unlock()
}

func (o *syncOrchestrator) writeSnapshot(ctx context.Context, handle capability.Handle, st models.Settings) error {
	data, err := o.repo.ExportSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}

	now := time.Now().UTC()
	st.LastSyncAt = &now
	data.Settings = st

	var snapshot models.SyncSnapshot
	if st.EncryptionEnabled {
		password, ok := o.passwords.Lookup()
		if !ok {
			return ErrPasswordRequired
		}
		plaintext, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode snapshot payload: %w", err)
		}
		envelope, err := o.cipher.Encrypt(plaintext, password)
		if err != nil {
			return fmt.Errorf("encrypt snapshot: %w", err)
		}
		snapshot, err = o.codec.BuildEncrypted(envelope, now)
		if err != nil {
			return err
		}
	} else {
		snapshot, err = o.codec.BuildUnencrypted(data, now)
		if err != nil {
			return err
		}
	}

	out, err := o.codec.Serialize(snapshot)
	if err != nil {
		return err
	}

	if err := handle.Write(ctx, out); err != nil {
		if errors.Is(err, capability.ErrNoScope) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return fmt.Errorf("%w: %v", ErrTransientIO, err)
	}

	// The write is durable; record the sync time in the cache so the next
	// session (and the UI) knows how fresh the file is.
	if err := o.settings.SaveSettings(ctx, st); err != nil {
		o.logger.Warn().Err(err).Str("func", "writeSnapshot").Msg("could not record last sync time")
	}

	o.logger.Info().Str("func", "writeSnapshot").Int("bytes", len(out)).Msg("sync file written")
	return nil
}

func (o *syncOrchestrator) Load(ctx context.Context, password string) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	o.stateMu.Lock()
	handle := o.handle
	o.stateMu.Unlock()

	// Source-of-truth precedence: a writable file wins outright, a file
	// with stale scope yields to the cache until the user re-grants, and
	// no capability at all means the cache is all there is.
	if handle == nil {
		o.transition(func(s *sessionState) { s.state = StateNotConfigured })
		return nil
	}

	st, err := o.settings.Settings(ctx)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	if !st.SyncEnabled {
		o.logger.Debug().Str("func", "Load").Msg("sync disabled, keeping cache")
		return nil
	}

	if !handle.CurrentScope().AllowsWrite() {
		o.transition(func(s *sessionState) {
			s.state = StateNeedsPermission
			s.reason = "storage access needs to be re-granted"
			s.readOnlyPending = true
		})
		return nil
	}

	o.transition(func(s *sessionState) { s.state = StateLoading })

	err = o.loadSnapshot(ctx, handle, password)
	if err != nil {
		o.transition(func(s *sessionState) {
			switch {
			case errors.Is(err, ErrPasswordRequired):
				s.state = StateReady
			case errors.Is(err, crypto.ErrWrongPasswordOrCorrupt):
				s.passwordFailures++
				s.offerFallback = s.passwordFailures >= o.retryLimit
				s.state = StateError
				s.reason = "wrong password or corrupted sync file"
			case errors.Is(err, syncfile.ErrIncompatibleFormat):
				s.state = StateError
				s.reason = "sync file was written by a newer app version"
			case errors.Is(err, syncfile.ErrMalformedSnapshot):
				s.state = StateError
				s.reason = "sync file is damaged"
			default:
				s.state = StateError
				s.reason = "load failed"
			}
		})
		return err
	}

	o.transition(func(s *sessionState) {
		s.state = StateReady
		s.reason = ""
		s.readOnlyPending = false
		s.offerFallback = false
		s.passwordFailures = 0
	})
	return nil
}

func (o *syncOrchestrator) loadSnapshot(ctx context.Context, handle capability.Handle, password string) error {
	contents, err := handle.Read(ctx)
	if err != nil {
		if errors.Is(err, capability.ErrNoScope) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return fmt.Errorf("%w: %v", ErrTransientIO, err)
	}
	if len(contents) == 0 {
		// A fresh, never-written file. The cache stands as-is.
		o.logger.Debug().Str("func", "loadSnapshot").Msg("sync file is empty, keeping cache")
		return nil
	}

	snapshot, err := o.codec.Deserialize(contents)
	if err != nil {
		// Malformed or incompatible contents are reported, never repaired:
		// overwriting a file we cannot read would destroy data another
		// device may still understand.
		return err
	}

	var data models.SnapshotData
	if snapshot.Encrypted {
		data, err = o.decryptSnapshot(snapshot, password)
		if err != nil {
			return err
		}
	} else {
		data, err = o.codec.ExtractData(snapshot)
		if err != nil {
			return err
		}
	}

	// Full replace. Merging two divergent snapshots is a lie with extra
	// steps; the file is the source of truth once we got this far.
	if err := o.repo.ImportSnapshot(ctx, data); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}

	now := time.Now().UTC()
	st := data.Settings
	st.LastSyncAt = &now
	if err := o.settings.SaveSettings(ctx, st); err != nil {
		o.logger.Warn().Err(err).Str("func", "loadSnapshot").Msg("could not record last sync time")
	}

	o.logger.Info().
		Str("func", "loadSnapshot").
		Bool("encrypted", snapshot.Encrypted).
		Int("accounts", len(data.Accounts)).
		Int("transactions", len(data.Transactions)).
		Msg("sync file loaded")
	return nil
}

func (o *syncOrchestrator) decryptSnapshot(snapshot models.SyncSnapshot, password string) (models.SnapshotData, error) {
	if password == "" {
		cached, ok := o.passwords.Lookup()
		if !ok {
			return models.SnapshotData{}, ErrPasswordRequired
		}
		password = cached
	}

	envelope, err := o.codec.ExtractEnvelope(snapshot)
	if err != nil {
		return models.SnapshotData{}, err
	}

	plaintext, err := o.cipher.Decrypt(envelope, password)
	if err != nil {
		return models.SnapshotData{}, err
	}

	// Route the decrypted payload through the same structural validation an
	// unencrypted file gets.
	data, err := o.codec.ExtractData(models.SyncSnapshot{
		FormatVersion: snapshot.FormatVersion,
		ExportedAt:    snapshot.ExportedAt,
		Payload:       plaintext,
	})
	if err != nil {
		return models.SnapshotData{}, err
	}

	if data.Settings.RememberPassword {
		o.passwords.Remember(password)
	}
	return data, nil
}

// ScheduleSave arms the debounced save timer. It is a no-op without a
// configured storage, and the auto-sync setting gates it: with auto-sync off,
// mutations accumulate in the cache until an explicit Save or SaveNow.
func (o *syncOrchestrator) ScheduleSave() {
	o.stateMu.Lock()
	configured := o.handle != nil
	o.stateMu.Unlock()
	if !configured {
		return
	}

	st, err := o.settings.Settings(context.Background())
	if err != nil {
		o.logger.Warn().Err(err).Str("func", "ScheduleSave").Msg("could not read settings")
		return
	}
	if !st.SyncEnabled || !st.AutoSyncEnabled {
		return
	}

	o.scheduler.Schedule()
}

func (o *syncOrchestrator) SaveNow(ctx context.Context) error {
	return o.scheduler.Flush(ctx)
}

// debouncedSave is the SaveFunc handed to the scheduler.
func (o *syncOrchestrator) debouncedSave(ctx context.Context) error {
	err := o.Save(ctx)
	if errors.Is(err, ErrNotReady) {
		// The session left Ready between the schedule and the timer firing
		// (disconnect, revoked scope). Nothing to save anymore.
		o.logger.Debug().Str("func", "debouncedSave").Msg("skipping save, session no longer ready")
		return nil
	}
	return err
}

func (o *syncOrchestrator) Disconnect(ctx context.Context) error {
	// Cancel before taking opMu: an in-flight save holds opMu, and Cancel
	// waits for it to finish.
	o.scheduler.Cancel()

	o.opMu.Lock()
	defer o.opMu.Unlock()

	if err := o.slot.Clear(ctx); err != nil {
		return fmt.Errorf("clear capability: %w", err)
	}
	o.passwords.Clear()

	if st, err := o.settings.Settings(ctx); err == nil {
		st.SyncEnabled = false
		if err := o.settings.SaveSettings(ctx, st); err != nil {
			o.logger.Warn().Err(err).Str("func", "Disconnect").Msg("could not record disabled sync")
		}
	} else {
		o.logger.Warn().Err(err).Str("func", "Disconnect").Msg("could not read settings")
	}

	o.transition(func(s *sessionState) {
		s.capDesc = nil
		s.handle = nil
		s.state = StateNotConfigured
		s.reason = ""
		s.readOnlyPending = false
		s.offerFallback = false
		s.passwordFailures = 0
	})

	o.logger.Info().Str("func", "Disconnect").Msg("storage disconnected, cache kept")
	return nil
}

func (o *syncOrchestrator) State() StateSnapshot {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	return o.snapshotLocked()
}

func (o *syncOrchestrator) Subscribe(fn func(StateSnapshot)) func() {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()

	id := o.nextSubscriber
	o.nextSubscriber++
	o.subscribers[id] = fn

	return func() {
		o.stateMu.Lock()
		defer o.stateMu.Unlock()
		delete(o.subscribers, id)
	}
}

func (o *syncOrchestrator) currentHandle() capability.Handle {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	return o.handle
}

// sessionState is the mutable view handed to transition mutators.
type sessionState struct {
	state            State
	reason           string
	readOnlyPending  bool
	offerFallback    bool
	capDesc          *models.Capability
	handle           capability.Handle
	passwordFailures int
}

// transition applies mutate under stateMu, then notifies subscribers outside
// the lock so a callback can call State or Subscribe without deadlocking.
func (o *syncOrchestrator) transition(mutate func(*sessionState)) {
	o.stateMu.Lock()
	s := sessionState{
		state:            o.state,
		reason:           o.reason,
		readOnlyPending:  o.readOnlyPending,
		offerFallback:    o.offerFallback,
		capDesc:          o.capDesc,
		handle:           o.handle,
		passwordFailures: o.passwordFailures,
	}
	mutate(&s)
	o.state = s.state
	o.reason = s.reason
	o.readOnlyPending = s.readOnlyPending
	o.offerFallback = s.offerFallback
	o.capDesc = s.capDesc
	o.handle = s.handle
	o.passwordFailures = s.passwordFailures

	snapshot := o.snapshotLocked()
	subscribers := make([]func(StateSnapshot), 0, len(o.subscribers))
	for _, fn := range o.subscribers {
		subscribers = append(subscribers, fn)
	}
	o.stateMu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

func (o *syncOrchestrator) snapshotLocked() StateSnapshot {
	snap := StateSnapshot{
		State:                     o.state,
		Reason:                    o.reason,
		ReadOnlyPendingPermission: o.readOnlyPending,
		OfferCacheFallback:        o.offerFallback,
	}
	if o.capDesc != nil {
		snap.CapabilityName = o.capDesc.DisplayName
		snap.EncryptionEnabled = o.capDesc.EncryptionEnabled
	}
	return snap
}
