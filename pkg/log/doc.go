/*
Package log provides structured logging for cattle-tools using zerolog.

The package keeps a single process-wide zerolog.Logger, configured once by
Init, and hands out child loggers that carry request scope:

	log.Init(log.Config{Level: log.DebugLevel, JSONOutput: true})

	logger := log.WithComponent("client")
	svcLog := log.WithServiceID(logger, "1a5", "1s42")
	svcLog.Info().Str("state", "active").Msg("Service became active")

Library code never calls Init. A client built before Init (or in tests)
receives the zero zerolog.Logger, which discards everything, so importing
pkg/client has no logging side effects.

Console output is the default and is meant for operators running the CLI.
JSON output is meant for CI pipelines that ship logs elsewhere.
*/
package log
