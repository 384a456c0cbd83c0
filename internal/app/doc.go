// Package app provides application bootstrap for replex.
//
// NewApplication loads the configuration, sets up logging and builds the
// core components in dependency order:
//
//  1. identity.Store, which yields the client identifier
//  2. credstore.Store, encrypted at rest
//  3. plextv.Client, carrying the device headers
//  4. discovery.Discoverer
//
// Each component is constructed explicitly and passed to the ones that need
// it; nothing is held in package-level state, so several applications over
// different directories can coexist in one process.
//
// The Application then hands out per-use objects: an authflow.Machine for
// each login, and a mediaserver.Client for the selected server.
package app
