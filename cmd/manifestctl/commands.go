package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	httpserver "github.com/dropDatabas3/peermanifest/internal/http"
	"github.com/dropDatabas3/peermanifest/internal/manifest"
	"github.com/dropDatabas3/peermanifest/internal/observability/logger"
	"github.com/dropDatabas3/peermanifest/internal/publish"
	"github.com/dropDatabas3/peermanifest/internal/signature"
)

func newFetchCmd(a *app) *cobra.Command {
	var (
		peer, base string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Descarga el manifest de un peer por HTTPS y muestra un resumen",
		RunE: func(cmd *cobra.Command, args []string) error {
			if peer == "" {
				return fmt.Errorf("--peer es requerido")
			}
			m, err := a.load(cmd.Context(), source{peer: peer, base: base})
			if err != nil {
				return err
			}
			return printManifest(cmd.OutOrStdout(), m, asJSON)
		},
	}
	cmd.Flags().StringVar(&peer, "peer", "", "Nombre del peer")
	cmd.Flags().StringVar(&base, "base", "", "Base URL de manifests (pisa manifest.base_url)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Imprimir el documento completo")
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	var (
		file   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Carga un manifest local y muestra un resumen",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file es requerido")
			}
			m, err := a.load(cmd.Context(), source{file: file})
			if err != nil {
				return err
			}
			return printManifest(cmd.OutOrStdout(), m, asJSON)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Manifest local")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Imprimir el documento completo")
	return cmd
}

func newResolveCmd(a *app) *cobra.Command {
	var (
		src source
		id  string
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resuelve una batch signing key y muestra su fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.resolve(cmd, src, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "key:         %s\n", id)
			fmt.Fprintf(out, "algorithm:   %s\n", v.Algorithm())
			fmt.Fprintf(out, "fingerprint: sha256:%s\n", v.Fingerprint())
			return nil
		},
	}
	src.bind(cmd)
	cmd.Flags().StringVar(&id, "id", "", "Identificador de la key")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	var (
		src          source
		id, msg, sig string
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verifica una firma ECDSA P-256 (r||s, base64) con una key del manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			rawSig, err := decodeSignature(sig)
			if err != nil {
				return err
			}
			v, err := a.resolve(cmd, src, id)
			if err != nil {
				return err
			}
			if err := v.Verify([]byte(msg), rawSig); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	src.bind(cmd)
	cmd.Flags().StringVar(&id, "id", "", "Identificador de la key")
	cmd.Flags().StringVar(&msg, "message", "", "Mensaje firmado")
	cmd.Flags().StringVar(&sig, "signature", "", "Firma en base64 (estándar o URL-safe)")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var addr, dir, certFile, keyFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Publica los manifests de server.manifest_dir por HTTP o HTTPS",
		Long: `Publica <dir>/<peer>/specific-manifest.json.

Los fetchers sólo piden manifests por HTTPS. Con --tls-cert y --tls-key
(o server.tls_cert/server.tls_key) el servidor termina TLS; sin ellos sirve
HTTP plano y debe quedar detrás de un proxy que termine HTTPS.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			if dir == "" {
				dir = a.cfg.Server.ManifestDir
			}
			if certFile == "" && keyFile == "" {
				certFile, keyFile = a.cfg.Server.TLSCert, a.cfg.Server.TLSKey
			}
			if (certFile == "") != (keyFile == "") {
				return fmt.Errorf("--tls-cert y --tls-key van juntos")
			}
			h, err := httpserver.NewRouter(httpserver.RouterDeps{ManifestDir: dir})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if certFile == "" {
				logger.S().Warnf("serving manifests from %s over plain HTTP; put an HTTPS-terminating proxy in front", dir)
			} else {
				logger.S().Infof("serving manifests from %s over HTTPS", dir)
			}
			return httpserver.Serve(ctx, addr, h, httpserver.TLSFiles{CertFile: certFile, KeyFile: keyFile})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Dirección de escucha (pisa server.addr)")
	cmd.Flags().StringVar(&dir, "dir", "", "Directorio de manifests (pisa server.manifest_dir)")
	cmd.Flags().StringVar(&certFile, "tls-cert", "", "Certificado PEM (pisa server.tls_cert)")
	cmd.Flags().StringVar(&keyFile, "tls-key", "", "Clave PEM (pisa server.tls_key)")
	return cmd
}

func newPublishCmd(a *app) *cobra.Command {
	var peer, file, dir string
	var remove bool
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Valida un manifest y lo copia al directorio que sirve `serve`",
		RunE: func(cmd *cobra.Command, args []string) error {
			if peer == "" {
				return fmt.Errorf("--peer es requerido")
			}
			if dir == "" {
				dir = a.cfg.Server.ManifestDir
			}
			if remove {
				return publish.Remove(dir, peer)
			}
			if file == "" {
				return fmt.Errorf("--file es requerido")
			}
			m, err := manifest.FromFile(file)
			if err != nil {
				return err
			}
			path, err := publish.Write(dir, peer, m)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&peer, "peer", "", "Nombre con el que se publica")
	cmd.Flags().StringVar(&file, "file", "", "Manifest a publicar")
	cmd.Flags().StringVar(&dir, "dir", "", "Directorio de manifests (pisa server.manifest_dir)")
	cmd.Flags().BoolVar(&remove, "remove", false, "Despublicar el peer")
	return cmd
}

func (a *app) resolve(cmd *cobra.Command, src source, id string) (*signature.Verifier, error) {
	if id == "" {
		return nil, fmt.Errorf("--id es requerido")
	}
	m, err := a.load(cmd.Context(), src)
	if err != nil {
		return nil, err
	}
	v, err := m.BatchSigningPublicKey(id)
	if err != nil {
		return nil, err
	}
	logger.L().Debug("key resolved", logger.KeyID(id), logger.Fingerprint(v.Fingerprint()))
	return v, nil
}

func decodeSignature(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("--signature es requerido")
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("--signature no es base64 válido")
}

// printManifest imprime un resumen legible; con asJSON, el documento canónico.
// Nunca imprime material de claves, sólo identificadores y expiraciones.
func printManifest(w io.Writer, m *manifest.SpecificManifest, asJSON bool) error {
	if asJSON {
		b, err := m.Marshal()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}

	fmt.Fprintf(w, "format:                 %d\n", m.Format)
	fmt.Fprintf(w, "ingestion-bucket:       %s\n", m.IngestionBucket)
	fmt.Fprintf(w, "peer-validation-bucket: %s\n", m.PeerValidationBucket)
	fmt.Fprintf(w, "batch-signing-public-keys (%d):\n", len(m.BatchSigningPublicKeys))
	for _, id := range m.KeyIDs() {
		exp := m.BatchSigningPublicKeys[id].Expiration
		if exp == "" {
			exp = "-"
		}
		fmt.Fprintf(w, "  %s  expires=%s\n", id, exp)
	}

	certIDs := make([]string, 0, len(m.PacketEncryptionCertificates))
	for id := range m.PacketEncryptionCertificates {
		certIDs = append(certIDs, id)
	}
	sort.Strings(certIDs)
	fmt.Fprintf(w, "packet-encryption-certificates (%d):\n", len(certIDs))
	for _, id := range certIDs {
		fmt.Fprintf(w, "  %s\n", id)
	}
	return nil
}
