// Package listener acquires the gateway's listening socket.
//
// Ports are tried in ascending order across an inclusive range and the
// first one that binds is kept. Scan holds the scan logic and takes the
// bind operation as a parameter; Acquire supplies a real TCP bind.
package listener
