// Package auth provides an optional, pluggable authenticator for the
// initialize handshake. It is off by default: the engine never requires
// an Authenticator, matching the base protocol's "no auth" posture.
//
// When configured via engine.WithAuthenticator, the engine extracts a
// bearer token from the initialize request's MCP-MQTT-AUTH user
// property (or params.authToken as a fallback, mirroring the existing
// mcpClientId extension point) and calls CheckAuthentication before a
// ClientSession is created. A failure produces a JSON-RPC error response
// on the client's RPC topic instead of a session.
//
// # Access token authentication
//
// NewFromDiscovery constructs an Authenticator that validates RFC 9068
// access tokens using OpenID Connect discovery to obtain the issuer's
// JWKS. The expected audience is a required argument; the remaining
// validation requirements (required scopes, leeway, allowed algorithms,
// additional audiences) are configured via functional options.
//
// NewFromStaticJWKS is an alternative for authorization servers that
// don't expose a discovery document: the JWKS endpoint is supplied
// directly instead of being resolved through discovery.
//
// Example:
//
//	authn, err := auth.NewFromDiscovery(ctx, "https://issuer.example", "mqtt-mcp-server",
//	    auth.WithRequiredScopes("mcp:tools"))
//	if err != nil { log.Fatal(err) }
//	eng := engine.New(engine.WithAuthenticator(authn))
//	eng.Start(conn, serverID, serverName)
package auth
