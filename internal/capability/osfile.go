package capability

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"famledger/internal/logger"
	"famledger/models"
)

// OSFileKind is the provider kind recorded in capability descriptors minted
// by [NewOSFileProvider].
const OSFileKind = "os-file"

// osFileProvider grants capabilities over ordinary filesystem paths. Scope is
// whatever the OS permission bits allow at probe time, so an externally
// chmod-ed or deleted file shows up as a revoked scope, mirroring how a
// browser revokes a persisted file-handle permission.
type osFileProvider struct {
	logger *logger.Logger
}

// NewOSFileProvider constructs the filesystem-backed [Provider].
func NewOSFileProvider(log *logger.Logger) Provider {
	return &osFileProvider{logger: log}
}

func (p *osFileProvider) Kind() string { return OSFileKind }

func (p *osFileProvider) Supported() bool { return true }

func (p *osFileProvider) Restore(cap models.Capability) (Handle, error) {
	if cap.Kind != OSFileKind {
		return nil, fmt.Errorf("restore capability: kind %q is not %q", cap.Kind, OSFileKind)
	}
	if cap.Location == "" {
		return nil, fmt.Errorf("restore capability: empty location")
	}
	return &osFileHandle{path: cap.Location, displayName: cap.DisplayName}, nil
}

func (p *osFileProvider) Pick(ctx context.Context, req PickRequest) (Handle, models.Capability, error) {
	if req.Location == "" {
		return nil, models.Capability{}, ErrCancelled
	}

	path, err := filepath.Abs(req.Location)
	if err != nil {
		return nil, models.Capability{}, fmt.Errorf("resolve location: %w", err)
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, models.Capability{}, fmt.Errorf("probe location: %w", err)
		}
		if !req.Create {
			return nil, models.Capability{}, fmt.Errorf("location does not exist: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, models.Capability{}, fmt.Errorf("create location dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, models.Capability{}, fmt.Errorf("create location: %w", err)
		}
		f.Close()
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = filepath.Base(path)
	}

	handle := &osFileHandle{path: path, displayName: displayName}
	descriptor := models.Capability{
		ID:          uuid.NewString(),
		Kind:        OSFileKind,
		Location:    path,
		DisplayName: displayName,
		Scope:       handle.CurrentScope(),
		GrantedAt:   time.Now().UTC(),
	}

	p.logger.Info().Str("location", path).Str("scope", string(descriptor.Scope)).Msg("storage capability granted")

	return handle, descriptor, nil
}

type osFileHandle struct {
	path        string
	displayName string
}

func (h *osFileHandle) DisplayName() string { return h.displayName }

func (h *osFileHandle) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !h.CurrentScope().AllowsRead() {
		return nil, ErrNoScope
	}
	data, err := os.ReadFile(h.path)
	if err != nil {
		return nil, fmt.Errorf("read sync file: %w", err)
	}
	return data, nil
}

// Write replaces the file contents via a same-directory temp file and rename,
// so a reader either sees the old contents or the new, never a partial write.
func (h *osFileHandle) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !h.CurrentScope().AllowsWrite() {
		return ErrNoScope
	}

	dir := filepath.Dir(h.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(h.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp sync file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write temp sync file: %w", err)
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp sync file: %w", err)
	}
	if err := os.Rename(tmpName, h.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace sync file: %w", err)
	}
	return nil
}

// CurrentScope probes the file's permission bits right now. The result is a
// point-in-time answer: the scope may be revoked between this probe and the
// next operation, which is why writers re-check immediately before writing.
func (h *osFileHandle) CurrentScope() models.Scope {
	if _, err := os.Stat(h.path); err != nil {
		return models.ScopeNone
	}

	if f, err := os.OpenFile(h.path, os.O_WRONLY, 0); err == nil {
		f.Close()
		return models.ScopeReadWrite
	}
	if f, err := os.Open(h.path); err == nil {
		f.Close()
		return models.ScopeRead
	}
	return models.ScopeNone
}

// RequestScope re-probes the location. The filesystem has no interactive
// grant dialog, so a request succeeds exactly when the permission bits
// already allow the desired scope; the user "re-grants" by restoring the
// file or its permissions.
func (h *osFileHandle) RequestScope(ctx context.Context, desired models.Scope) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	current := h.CurrentScope()
	switch desired {
	case models.ScopeRead:
		return current.AllowsRead(), nil
	case models.ScopeReadWrite:
		return current.AllowsWrite(), nil
	default:
		return true, nil
	}
}
