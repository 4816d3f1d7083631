// Package logging builds the zap loggers used across Atlas.
//
// # Overview
//
// The logging package wraps go.uber.org/zap to provide:
//   - JSON or console encoding selected by configuration
//   - Level parsing shared by the CLI flags and the config file
//   - Request IDs carried through context.Context
//   - Credential masking for the rare cases a key hint is logged
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRequestID(ctx, id)
//	logger.Info("completion served", logging.ContextFields(ctx)...)
//
// Components receive a *zap.Logger and call Named to tag their output:
//
//	log := logger.Named("routing")
//
// Tests use logging.Nop() or zaptest/observer.
package logging
