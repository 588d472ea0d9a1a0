// Package ticker drives the TIME mode countdown.
//
// A Source runs one tick loop per session. Clock is injectable so tests can
// fire ticks by hand with a fake ticker.
package ticker
