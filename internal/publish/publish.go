// Package publish mantiene el árbol <dir>/<peer>/specific-manifest.json que
// sirve el servidor de publicación. Sólo escribe manifests que cargan limpio.
package publish

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dropDatabas3/peermanifest/internal/fetch"
	"github.com/dropDatabas3/peermanifest/internal/manifest"
	"github.com/dropDatabas3/peermanifest/internal/observability/logger"
)

// ErrPeerName indica un nombre de peer que no puede ser un directorio.
var ErrPeerName = errors.New("publish: invalid peer name")

// ValidPeer reporta si peer sirve como nombre de directorio bajo el árbol publicado.
// Se excluyen nombres ocultos para no exponer archivos de trabajo (.tmp-*).
func ValidPeer(peer string) bool {
	switch {
	case peer == "", peer == ".", peer == "..":
		return false
	case strings.ContainsAny(peer, `/\?#`), strings.HasPrefix(peer, "."):
		return false
	}
	return true
}

// Path retorna dónde vive el manifest de peer bajo dir.
func Path(dir, peer string) (string, error) {
	if !ValidPeer(peer) {
		return "", fmt.Errorf("%w: %q", ErrPeerName, peer)
	}
	return filepath.Join(dir, peer, fetch.ManifestFileName), nil
}

// Write serializa m en su forma canónica y lo deja en Path(dir, peer) de forma atómica.
// El documento se vuelve a cargar antes de escribir: un manifest que el loader
// rechazaría nunca llega al disco.
func Write(dir, peer string, m *manifest.SpecificManifest) (string, error) {
	path, err := Path(dir, peer)
	if err != nil {
		return "", err
	}
	body, err := m.Marshal()
	if err != nil {
		return "", fmt.Errorf("publish: marshal: %w", err)
	}
	if _, err := manifest.FromBytes(body); err != nil {
		return "", err
	}
	if err := atomicWriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}
	logger.Named("publish").Info("manifest published",
		logger.Peer(peer), logger.File(path), logger.Bytes(len(body)))
	return path, nil
}

// Remove borra el manifest de peer (y su directorio si queda vacío).
func Remove(dir, peer string) error {
	path, err := Path(dir, peer)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("publish: %w", err)
	}
	_ = os.Remove(filepath.Dir(path))
	return nil
}

// atomicWriteFile: write tmp → Sync → Close → Chmod → Rename.
// Si rename falla (Windows con destino bloqueado) intenta remove+rename.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	_ = os.Chmod(tmpPath, perm)

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return fmt.Errorf("rename: %v (after remove: %v)", err, err2)
		}
	}
	return nil
}
