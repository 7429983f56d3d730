package server

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// TrapSignals invokes shutdown once on the usual termination signals.
func TrapSignals(logger *zap.Logger, shutdown func()) {
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

		for sig := range sigchan {
			switch sig {
			case syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT:
				logger.Info("prepare to die", zap.String("signal", sig.String()))
				shutdown()
				return
			default:
				os.Exit(1)
			}
		}
	}()
}
