// Package logging builds the gateway's log/slog logger.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:         "info",
//	    Format:        "json",
//	    RedactSecrets: true,
//	})
//	slog.SetDefault(logger)
//
//	// request_id is added automatically when present in ctx
//	ctx = logging.WithRequestID(ctx, "4b1c...")
//	logger.InfoContext(ctx, "request forwarded", "route", "chat-completions")
//
// With RedactSecrets enabled, bearer tokens, sk- style API keys, password
// assignments, and URL credentials are masked in messages and string
// attributes. Attributes whose key looks sensitive (authorization, token,
// secret, ...) are masked to a four character prefix.
package logging
