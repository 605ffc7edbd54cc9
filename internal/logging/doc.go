// Package logging provides structured logging for the automember tools.
//
// # Overview
//
// The logging package provides a structured logging interface with support for:
//
//   - Multiple log levels (debug, info, warn, error)
//   - Text and JSON output formats
//   - Request ID tracking through context.Context
//   - Field-based contextual logging
//
// # Creating a Logger
//
//	logger := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stderr",
//	})
//
// For testing, use a no-op logger or capture output with Writer:
//
//	logger := logging.NewNop()
//	logger := logging.New(logging.Config{Level: "debug", Format: "json", Writer: &buf})
//
// # Structured Logging
//
//	logger.Info("member synthesized",
//	    "dn", "cn=admins,ou=Groups,dc=example,dc=com",
//	    "values", 2,
//	)
//
// Fields shared by every entry of a component are attached once:
//
//	log := logger.WithFields("component", "automember")
//
// # Request IDs
//
// Each search gets a UUID request ID that travels in its context:
//
//	ctx = logging.ContextWithRequestID(ctx, logging.GenerateRequestID())
//	logging.FromContext(ctx, log).Debug("search started")
package logging
