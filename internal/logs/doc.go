// Package logs reads the daemon log file for `leadlens logs`.
//
// Last returns the trailing lines with bounded memory. Follow polls from an
// offset and restarts from the top when the file shrinks, which happens when
// an operator truncates or rotates leadlens.log.
package logs
