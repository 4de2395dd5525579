package logger

import (
	"go.uber.org/zap"
)

// Log is a no-op until InitLogger runs so packages can log from tests.
var Log = zap.NewNop()

func InitLogger(production bool) {
	var (
		l   *zap.Logger
		err error
	)
	if production {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("Failed to init logger: " + err.Error())
	}
	Log = l
}

func SyncLogger() {
	_ = Log.Sync()
}
