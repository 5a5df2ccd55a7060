package logger

import "go.uber.org/zap"

// S retorna el SugaredLogger del singleton, para logs rápidos printf-style en la CLI.
//
//	logger.S().Infof("resolved key %s", keyID)
func S() *zap.SugaredLogger {
	return L().Sugar()
}
