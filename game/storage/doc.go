// Package storage provides backends for the persisted high score.
//
// Every store implements engine.Storage. Load failures read as 0 and save
// failures are logged and never reach the caller.
package storage
