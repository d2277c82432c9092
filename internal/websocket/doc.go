// Package websocket pushes processing events to browser clients.
//
// A Hub owns the set of connected clients and fans out events.Message
// frames. Each finished file pass is broadcast as file:processed or
// file:failed. Clients only ever send heartbeats.
package websocket
