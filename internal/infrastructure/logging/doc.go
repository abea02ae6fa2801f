// Package logging builds the bridge's zap logger.
//
// Production output is JSON for log collectors; development output is colored
// console text. The root logger is named "bridge", and each part of the bridge
// logs through a child tagged with its component:
//
//	logger, err := logging.New(cfg.Logging)
//	launcherLog := logger.Component("launcher")
//	launcherLog.Info("Launching new instance", zap.String("path", path))
package logging
