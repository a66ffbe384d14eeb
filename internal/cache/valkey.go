package cache

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyConfig describes the Valkey connection.
type ValkeyConfig struct {
	// URL is the server address, e.g. "valkey.namespace.svc:6379".
	URL      string
	Password string
	DB       int

	TLSEnabled bool
	// TLSCAFile is an optional PEM bundle for servers signed by a private CA.
	TLSCAFile string
}

// ValkeyBackend stores entries in Valkey.
type ValkeyBackend struct {
	client valkey.Client
}

// scanBatch is the COUNT hint for SCAN during pattern deletes.
const scanBatch = 200

// NewValkeyBackend connects to Valkey.
func NewValkeyBackend(cfg ValkeyConfig) (*ValkeyBackend, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("valkey URL is required")
	}
	opt := valkey.ClientOption{
		InitAddress: []string{cfg.URL},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	}
	if cfg.TLSEnabled {
		tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
		if cfg.TLSCAFile != "" {
			pem, err := os.ReadFile(cfg.TLSCAFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read valkey CA file: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(pem) {
				return nil, fmt.Errorf("no certificates found in %s", cfg.TLSCAFile)
			}
			tlsConfig.RootCAs = pool
		}
		opt.TLSConfig = tlsConfig
	}

	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}
	return &ValkeyBackend{client: client}, nil
}

func (v *ValkeyBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := v.client.Do(ctx, v.client.B().Get().Key(key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return b, true, nil
}

func (v *ValkeyBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	cmd := v.client.B().Set().Key(key).Value(valkey.BinaryString(value)).ExSeconds(seconds).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (v *ValkeyBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := v.client.Do(ctx, v.client.B().Del().Key(keys...).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// DeletePattern walks the keyspace with SCAN MATCH and deletes each batch.
func (v *ValkeyBackend) DeletePattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		entry, err := v.client.Do(ctx, v.client.B().Scan().Cursor(cursor).Match(pattern).Count(scanBatch).Build()).AsScanEntry()
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", pattern, err)
		}
		if err := v.Delete(ctx, entry.Elements...); err != nil {
			return err
		}
		cursor = entry.Cursor
		if cursor == 0 {
			return nil
		}
	}
}

func (v *ValkeyBackend) Ping(ctx context.Context) error {
	return v.client.Do(ctx, v.client.B().Ping().Build()).Error()
}

func (v *ValkeyBackend) Close() error {
	v.client.Close()
	return nil
}
