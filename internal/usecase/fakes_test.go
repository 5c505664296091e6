package usecase

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/semmidev/dbbackup/internal/adapter/compressor"
	"github.com/semmidev/dbbackup/internal/config"
	"github.com/semmidev/dbbackup/internal/domain"
	"github.com/semmidev/dbbackup/internal/infrastructure/logger"
)

var nopLogger = logger.Nop()

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type fakeDriver struct {
	dumpErr     error
	dumped      []string
	restored    []string
	restoreBody []byte
}

func (d *fakeDriver) Dump(ctx context.Context, dst string) error {
	d.dumped = append(d.dumped, dst)
	if d.dumpErr != nil {
		return &domain.DumpError{Database: "shop", Err: d.dumpErr}
	}
	return os.WriteFile(dst, []byte("CREATE TABLE orders (id INT);\n"), 0644)
}

func (d *fakeDriver) Restore(ctx context.Context, src string) error {
	d.restored = append(d.restored, src)
	body, err := os.ReadFile(src)
	if err != nil {
		return &domain.RestoreError{Database: "shop", Err: err}
	}
	d.restoreBody = body
	return nil
}

func (d *fakeDriver) FileExtension() string { return "sql" }
func (d *fakeDriver) Kind() string          { return "mysql" }

func driverFactory(d *fakeDriver) DriverFactory {
	return func(cfg config.ConnectionConfig) (domain.Driver, error) {
		if cfg.Driver != "mysql" {
			return nil, &domain.UnsupportedDriverError{Kind: cfg.Driver}
		}
		return d, nil
	}
}

func testConnections() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			Default: "mysql",
			Connections: map[string]config.ConnectionConfig{
				"mysql": {
					Driver:           "mysql",
					Host:             "db.internal",
					Database:         "shop",
					SlackWebhookPath: "T000/B000/XXX",
				},
				"legacy": {Driver: "sqlsrv", Database: "old"},
			},
		},
	}
}

type memoryStorage struct {
	mu         sync.Mutex
	objects    map[string]domain.ObjectInfo
	putErr     error
	listErr    error
	deleteErrs map[string]error
	puts       []string
	listed     []string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string]domain.ObjectInfo{}, deleteErrs: map[string]error{}}
}

func (m *memoryStorage) Put(ctx context.Context, bucket, key, sourcePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	info, err := os.Stat(sourcePath)
	if err != nil {
		return err
	}
	m.puts = append(m.puts, bucket+":"+key)
	m.objects[key] = domain.ObjectInfo{Key: key, Size: info.Size()}
	return nil
}

func (m *memoryStorage) List(ctx context.Context, bucket, prefix string) ([]domain.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listed = append(m.listed, prefix)
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.ObjectInfo
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryStorage) Delete(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.deleteErrs[key]; err != nil {
		return err
	}
	if _, ok := m.objects[key]; !ok {
		return errors.New("no such key")
	}
	delete(m.objects, key)
	return nil
}

func (m *memoryStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *memoryStorage) add(keys ...string) {
	for _, key := range keys {
		m.objects[key] = domain.ObjectInfo{Key: key}
	}
}

type fakeNotifier struct {
	name string
	err  error
	got  []domain.Notification
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Notify(ctx context.Context, n domain.Notification) error {
	f.got = append(f.got, n)
	return f.err
}

type brokenCompressor struct {
	compressErr error
	verifyErr   error
}

func (b *brokenCompressor) Compress(src, dst string) error {
	if b.compressErr != nil {
		_ = os.WriteFile(dst, []byte("partial"), 0644)
		return b.compressErr
	}
	return os.WriteFile(dst, []byte("garbage"), 0644)
}

func (b *brokenCompressor) Decompress(src, dst string) error { return errors.New("not implemented") }
func (b *brokenCompressor) Verify(path string) error        { return b.verifyErr }
func (b *brokenCompressor) Extension() string                { return "zip" }

func realCompressors(format string) (domain.Compressor, error) {
	return compressor.New(format)
}
