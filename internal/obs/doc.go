// Package obs configures diagnostic logging for the CLI: logrus with an
// optional size-rotated log file.
package obs
