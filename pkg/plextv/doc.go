// Package plextv implements the client side of the plex.tv PIN-based device
// authorization protocol and resource discovery.
//
// The package is transport only: it issues requests, decodes responses and
// classifies failures. It keeps no local state beyond its configuration, so a
// single Client can be shared by concurrent callers.
//
// # Core Components
//
//   - Device: the identification headers attached to every request
//   - Pin: a short-lived link code and, once linked, its auth token
//   - Resource / Connection: servers owned by the account and their network paths
//   - User: the account behind a token
//   - Error: failures classified into NetworkError, ServerError, ParseError,
//     Unauthenticated and AuthTimeout kinds
//
// # Usage
//
//	client := plextv.NewClient(plextv.Device{
//	    Product:          "RePlex",
//	    ClientIdentifier: clientID,
//	})
//
//	pin, err := client.GeneratePin(ctx)
//	// show pin.DisplayCode() to the user, then poll:
//	pin, err = client.CheckPin(ctx, pin.ID, pin.Code)
//	if pin.HasToken() {
//	    resources, err := client.GetResources(ctx, pin.AuthToken)
//	}
package plextv
