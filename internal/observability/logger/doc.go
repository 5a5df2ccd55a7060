// Package logger provee un logger Zap singleton con scoping por contexto.
//
// # Decisiones
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context scoping: cada fetch o request HTTP puede llevar su propio logger con
//     campos extra (peer, request_id) sin crear un core nuevo.
//   - Entornos: "dev" usa consola con colores, "prod" usa JSON.
//   - Niveles: debug, info, warn, error (LOG_LEVEL).
//   - Nunca se loguea material de claves: para identificar una clave se usa
//     su fingerprint (ver Fingerprint).
//
// # Uso
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
//	log := logger.From(ctx)
//	log.Debug("manifest fetched", logger.Peer(peer), logger.URL(u))
package logger
