// Package websocket provides WebSocket transport for SumStack.
//
// Architecture:
//
// A central Hub manages all connections. Each client has a read pump and a
// write pump; the hub goroutine owns the session to client map, so register,
// unregister and broadcast never race.
//
// Message Protocol:
//
// Clients connect with ?session=<id> and only listen. Every state change of
// that session, whether caused by a request or by the TIME mode countdown,
// is pushed as:
//
//	{"session_id": "ab12", "event": "state_update", "cause": "tick", "game_state": {...}}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	svc := service.NewGameService(sessions, configs, service.WithNotifier(hub))
//
// Hub implements service.Notifier. NotifyState never blocks the caller; a
// client that cannot keep up is disconnected.
package websocket
