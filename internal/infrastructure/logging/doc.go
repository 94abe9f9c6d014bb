// Package logging configures the structured logger shared by every hostlink
// component.
//
// Entries are JSON by default, which suits journald and container log
// collectors; "text" is easier to read when running in a terminal. Every
// entry carries service=hostlink and the build version.
//
//	logging:
//	  level: info     # debug, info, warn, error
//	  format: json    # json, text
//	  output: stdout  # stdout, stderr
//
// Components never import this package. They declare a Logger interface
// with the methods they use and main hands them a *Logger, usually with a
// component attribute:
//
//	registry.SetLogger(log.With("component", "action"))
//
// Broker passwords and InfluxDB tokens must never be logged.
package logging
