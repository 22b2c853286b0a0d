// Package eaclog reads extraction logs written by CD ripping tools.
//
// DecodeText turns the raw log bytes into text regardless of whether the
// ripper wrote UTF-16 (with or without a byte order mark), UTF-8, or a legacy
// Windows code page. Parse then recovers the expected checksum of every track
// from the lines carrying the copy CRC marker, in log order.
package eaclog
