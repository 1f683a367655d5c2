package webserver

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TLSReloader serves a certificate pair and picks up replacements on disk.
type TLSReloader struct {
	certFile    string
	keyFile     string
	cert        *tls.Certificate
	mu          sync.RWMutex
	lastModCert time.Time
	lastModKey  time.Time
	log         *zap.Logger
}

func NewTLSReloader(certFile, keyFile string, log *zap.Logger) (*TLSReloader, error) {
	if log == nil {
		log = zap.NewNop()
	}
	reloader := &TLSReloader{
		certFile: certFile,
		keyFile:  keyFile,
		log:      log.Named("tls"),
	}
	if err := reloader.reload(); err != nil {
		return nil, err
	}
	return reloader, nil
}

func (r *TLSReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("webserver: load key pair: %w", err)
	}

	r.mu.Lock()
	r.cert = &cert
	if info, err := os.Stat(r.certFile); err == nil {
		r.lastModCert = info.ModTime()
	}
	if info, err := os.Stat(r.keyFile); err == nil {
		r.lastModKey = info.ModTime()
	}
	r.mu.Unlock()

	r.log.Info("certificates loaded", zap.String("cert", r.certFile))
	return nil
}

// changed reports whether either file is newer than the loaded pair.
func (r *TLSReloader) changed() (bool, error) {
	certInfo, err := os.Stat(r.certFile)
	if err != nil {
		return false, err
	}
	keyInfo, err := os.Stat(r.keyFile)
	if err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return certInfo.ModTime().After(r.lastModCert) || keyInfo.ModTime().After(r.lastModKey), nil
}

// Watch polls the files every interval until ctx is done.
func (r *TLSReloader) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		changed, err := r.changed()
		if err != nil {
			r.log.Warn("stat certificate files", zap.Error(err))
			continue
		}
		if changed {
			if err := r.reload(); err != nil {
				r.log.Error("reload certificates", zap.Error(err))
			}
		}
	}
}

func (r *TLSReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

func (r *TLSReloader) GetConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: r.GetCertificate,
		MinVersion:     tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		},
	}
}
