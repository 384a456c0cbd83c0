// Package authflow implements the PIN-based device authorization flow.
//
// A Machine requests a PIN from plex.tv, exposes its code for the user to
// enter at https://plex.tv/link, and polls the PIN until the account is
// linked. The token is then written to the credential store.
//
// States:
//
//	Idle -> Generating -> AwaitingUser -> Polling -> Authenticated
//	                 \                        \---> Failed
//	                  \----------------------------> Failed
//
// A PIN that is not linked within Config.MaxAttempts checks is replaced by a
// fresh one, up to Config.MaxRetries times. Network and server errors while
// polling are retried on the next interval. Failing to generate a PIN ends
// the flow immediately.
//
// Observers use Subscribe, which always yields the most recent Status, or
// Wait, which blocks until a terminal state:
//
//	m := authflow.NewMachine(client, store, authflow.DefaultConfig())
//	m.Start()
//	st, err := m.Wait(ctx)
package authflow
