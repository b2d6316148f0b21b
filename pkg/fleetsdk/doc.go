// Package fleetsdk is a typed client for the fleetyard HTTP API.
//
// Unauthenticated operations (login, register, health probes) live on
// SDKClient. Login returns a Session, which carries the token pair and
// transparently refreshes the access token before it expires.
package fleetsdk
