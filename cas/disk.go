package cas

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/kbukum/rulekit/digest"
	"github.com/kbukum/rulekit/encryption"
	"github.com/kbukum/rulekit/observability"
)

// ErrLockTimeout is returned when a shard lock cannot be acquired in time.
var ErrLockTimeout = errors.New("cas: timed out acquiring shard lock")

// On-disk blob layout:
//
//	[0]    blobVersion
//	[1]    Compression tag
//	[2]    flags (flagSealed)
//	[3:n]  uvarint uncompressed length
//	[n:]   body, compressed and then optionally sealed
//
// A sealed body is bound to the blob's digest and header, so a file copied
// to another address or with an edited header fails to open.
const (
	blobVersion byte = 0x01
	flagSealed  byte = 0x01

	lockRetryDelay = 50 * time.Millisecond
)

// DiskOptions configures a DiskStore.
type DiskOptions struct {
	// Compression applied to new blobs. Existing blobs keep the tag they
	// were written with.
	Compression Compression
	// Sealer encrypts blob bodies at rest when set.
	Sealer encryption.Sealer
	// LockTimeout bounds how long writers wait for a shard lock.
	LockTimeout time.Duration
}

// DiskStore keeps one file per blob at <dir>/<first two hex digits>/<digest>.
// Writers in different processes coordinate through a per-shard file lock;
// blobs appear atomically through temp-file + rename, so readers never lock.
type DiskStore struct {
	dir  string
	opts DiskOptions
}

// NewDiskStore opens (creating if needed) a store rooted at dir.
func NewDiskStore(dir string, opts DiskOptions) (*DiskStore, error) {
	if dir == "" {
		return nil, errors.New("cas: disk store requires a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 5 * time.Second
	}
	return &DiskStore{dir: dir, opts: opts}, nil
}

// Dir returns the root directory.
func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) path(d Digest) string {
	hex := d.String()
	return filepath.Join(s.dir, hex[:2], hex)
}

func (s *DiskStore) Put(ctx context.Context, data []byte) (Digest, error) {
	d := digest.Of(data)
	path := s.path(d)
	if _, err := os.Stat(path); err == nil {
		return d, nil
	}

	blob, err := s.encode(d, data)
	if err != nil {
		return Digest{}, err
	}

	shard := filepath.Dir(path)
	if err := os.MkdirAll(shard, 0o755); err != nil {
		return Digest{}, fmt.Errorf("create shard directory: %w", err)
	}
	unlock, err := s.lock(ctx, shard)
	if err != nil {
		return Digest{}, err
	}
	defer unlock()

	// Another writer may have finished while we waited.
	if _, err := os.Stat(path); err == nil {
		return d, nil
	}

	tmp, err := os.CreateTemp(shard, "."+d.String()+".*.tmp")
	if err != nil {
		return Digest{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return Digest{}, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return Digest{}, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return Digest{}, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return Digest{}, fmt.Errorf("rename blob into place: %w", err)
	}
	return d, nil
}

func (s *DiskStore) Get(_ context.Context, d Digest) ([]byte, error) {
	blob, err := os.ReadFile(s.path(d))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	data, err := s.decode(d, blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDigestMismatch, d.Short(), err)
	}
	if err := verify(d, data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *DiskStore) Contains(_ context.Context, d Digest) (bool, error) {
	_, err := os.Stat(s.path(d))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat blob: %w", err)
	}
}

func (s *DiskStore) Delete(ctx context.Context, d Digest) error {
	path := s.path(d)
	shard := filepath.Dir(path)
	if _, err := os.Stat(shard); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	unlock, err := s.lock(ctx, shard)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

// CheckHealth implements observability.HealthChecker.
func (s *DiskStore) CheckHealth(context.Context) observability.Health {
	h := observability.Health{
		Name: "cache.disk",
		Details: map[string]string{
			"dir":         s.dir,
			"compression": s.opts.Compression.String(),
			"sealed":      fmt.Sprint(s.opts.Sealer != nil),
		},
	}
	info, err := os.Stat(s.dir)
	switch {
	case err != nil:
		h.Status, h.Message = observability.HealthStatusDown, err.Error()
	case !info.IsDir():
		h.Status, h.Message = observability.HealthStatusDown, "cache path is not a directory"
	default:
		h.Status = observability.HealthStatusUp
	}
	return h
}

func (s *DiskStore) lock(ctx context.Context, shard string) (func(), error) {
	lock := flock.New(filepath.Join(shard, ".lock"))

	lockCtx, cancel := context.WithTimeout(ctx, s.opts.LockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLockTimeout
		}
		return nil, fmt.Errorf("acquire shard lock: %w", err)
	}
	if !locked {
		return nil, ErrLockTimeout
	}
	return func() { _ = lock.Unlock() }, nil
}

func (s *DiskStore) encode(d Digest, data []byte) ([]byte, error) {
	tag, body, err := compress(data, s.opts.Compression)
	if err != nil {
		return nil, err
	}

	header := make([]byte, 3, 3+binary.MaxVarintLen64)
	header[0] = blobVersion
	header[1] = byte(tag)
	if s.opts.Sealer != nil {
		header[2] = flagSealed
	}
	header = binary.AppendUvarint(header, uint64(len(data)))

	if s.opts.Sealer != nil {
		body, err = s.opts.Sealer.Seal(body, additionalData(d, header))
		if err != nil {
			return nil, fmt.Errorf("seal blob: %w", err)
		}
	}
	return append(header, body...), nil
}

func (s *DiskStore) decode(d Digest, blob []byte) ([]byte, error) {
	if len(blob) < 4 {
		return nil, fmt.Errorf("blob too short (%d bytes)", len(blob))
	}
	if blob[0] != blobVersion {
		return nil, fmt.Errorf("unsupported blob version %d", blob[0])
	}
	tag, flags := Compression(blob[1]), blob[2]
	size, n := binary.Uvarint(blob[3:])
	if n <= 0 {
		return nil, errors.New("malformed length")
	}
	headerLen := 3 + n
	header, body := blob[:headerLen], blob[headerLen:]

	if flags&flagSealed != 0 {
		if s.opts.Sealer == nil {
			return nil, errors.New("blob is sealed but no key is configured")
		}
		var err error
		body, err = s.opts.Sealer.Open(body, additionalData(d, header))
		if err != nil {
			return nil, fmt.Errorf("open sealed blob: %w", err)
		}
	}
	if size > uint64(maxBlobSize) {
		return nil, fmt.Errorf("declared length %d exceeds limit", size)
	}
	return decompress(body, tag, int(size))
}

// maxBlobSize caps the declared length read back from disk.
const maxBlobSize = 1 << 30

func additionalData(d Digest, header []byte) []byte {
	ad := make([]byte, 0, len(d)+len(header))
	ad = append(ad, d[:]...)
	return append(ad, header...)
}
