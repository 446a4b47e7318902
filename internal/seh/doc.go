// Package seh provides the signal channel to the Samsung vendor
// biometrics daemon.
//
// The daemon expects raw finger press/release notifications independent
// of the primary lifecycle surface. The channel is resolved once at
// startup and requests are one-way: the controller forwards
// (FingerState, ParamPressed|ParamReleased, fqname) frames and never
// waits for, or reads, a response. Delivery is best-effort with no
// retries — if the daemon is unreachable the channel degrades to a
// no-op and the rest of the HAL keeps working.
package seh
