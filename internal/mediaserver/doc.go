// Package mediaserver is the data-fetching client for a single media server
// selected by discovery. Every request carries the device identification
// headers and the token read from an oauth2.TokenSource, normally the
// credential store.
package mediaserver
