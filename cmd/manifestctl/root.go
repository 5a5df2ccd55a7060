package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/peermanifest/internal/cache"
	"github.com/dropDatabas3/peermanifest/internal/config"
	"github.com/dropDatabas3/peermanifest/internal/fetch"
	"github.com/dropDatabas3/peermanifest/internal/manifest"
	"github.com/dropDatabas3/peermanifest/internal/observability/logger"
	"github.com/dropDatabas3/peermanifest/internal/peers"
)

// app es el estado compartido entre subcomandos, armado en PersistentPreRunE.
type app struct {
	configPath string
	envFile    string
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "manifestctl",
		Short:         "Carga y publica specific manifests de peers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Archivo YAML de configuración (opcional)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Archivo .env a cargar antes de leer la configuración")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Nivel de log: debug|info|warn|error (pisa log.level)")

	root.AddCommand(
		newFetchCmd(a),
		newInspectCmd(a),
		newResolveCmd(a),
		newVerifyCmd(a),
		newServeCmd(a),
		newPublishCmd(a),
	)
	return root
}

func (a *app) init() error {
	if a.envFile != "" {
		// .env es opcional: sólo falla si existe y no se puede parsear.
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("env file %s: %w", a.envFile, err)
		}
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if _, err := logger.ParseLevel(a.logLevel); err != nil {
			return err
		}
		cfg.Log.Level = strings.ToLower(a.logLevel)
	}
	a.cfg = cfg

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "manifestctl"})
	return nil
}

// source indica de dónde sale el manifest: --file o --peer (con --base opcional).
type source struct {
	file string
	peer string
	base string
}

func (s *source) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.file, "file", "", "Manifest local")
	cmd.Flags().StringVar(&s.peer, "peer", "", "Nombre del peer (se busca por HTTPS)")
	cmd.Flags().StringVar(&s.base, "base", "", "Base URL de manifests (pisa manifest.base_url)")
	cmd.MarkFlagsMutuallyExclusive("file", "peer")
}

func (a *app) load(ctx context.Context, s source) (*manifest.SpecificManifest, error) {
	switch {
	case s.file != "":
		return manifest.FromFile(s.file)
	case s.peer == "":
		return nil, errors.New("one of --file or --peer is required")
	}
	d, closeFn, err := a.directory(s.base)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return d.Manifest(ctx, s.peer)
}

// directory arma el peers.Directory según la configuración (cache incluido).
func (a *app) directory(base string) (*peers.Directory, func(), error) {
	if base == "" {
		base = a.cfg.Manifest.BaseURL
	}
	if base == "" {
		return nil, nil, errors.New("no base URL: use --base or manifest.base_url")
	}

	cc, err := cache.New(cache.Config{
		Kind: a.cfg.Cache.Kind,
		TTL:  a.cfg.Cache.TTL,
		Redis: cache.RedisConfig{
			Addr:     a.cfg.Cache.Redis.Addr,
			DB:       a.cfg.Cache.Redis.DB,
			Password: a.cfg.Cache.Redis.Password,
			Prefix:   a.cfg.Cache.Redis.Prefix,
		},
	})
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {}
	if cc != nil {
		closeFn = func() { _ = cc.Close() }
	}

	return &peers.Directory{
		BaseURL:      base,
		Fetcher:      fetch.NewHTTPFetcher(a.cfg.Manifest.Timeout, a.cfg.Manifest.UserAgent),
		Cache:        cc,
		TTL:          a.cfg.Cache.TTL,
		FetchTimeout: 2 * a.cfg.Manifest.Timeout,
	}, closeFn, nil
}
