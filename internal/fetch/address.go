// Package fetch obtiene los bytes crudos de un manifest, por HTTPS o desde disco.
// No decodifica ni valida el contenido: eso es responsabilidad de manifest.
package fetch

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ManifestFileName es el componente final de la dirección de un specific manifest.
const ManifestFileName = "specific-manifest.json"

// ErrAddress indica que base y peer no forman una dirección HTTPS válida.
var ErrAddress = errors.New("fetch: invalid manifest address")

// ManifestURL arma <base>/<peer>/specific-manifest.json y fuerza el esquema https,
// sea cual sea el que venga en base.
func ManifestURL(basePath, peerName string) (*url.URL, error) {
	base, err := url.Parse(strings.TrimSpace(basePath))
	if err != nil {
		return nil, fmt.Errorf("%w: parse base path: %v", ErrAddress, err)
	}
	if base.Host == "" {
		// Sin host (p.ej. "file:///x" o "mailto:x") no hay forma de pasar a https.
		return nil, fmt.Errorf("%w: base path %q has no host, cannot use https", ErrAddress, basePath)
	}
	if err := validPeerSegment(peerName); err != nil {
		return nil, err
	}

	if base.Path == "" {
		base.Path = "/"
	}
	u := base.JoinPath(peerName, ManifestFileName)
	u.Scheme = "https"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func validPeerSegment(peer string) error {
	switch {
	case strings.TrimSpace(peer) == "":
		return fmt.Errorf("%w: empty peer name", ErrAddress)
	case peer == "." || peer == "..":
		return fmt.Errorf("%w: peer name %q is not a path segment", ErrAddress, peer)
	case strings.ContainsAny(peer, "/\\?#"):
		return fmt.Errorf("%w: peer name %q must be a single path segment", ErrAddress, peer)
	}
	return nil
}
