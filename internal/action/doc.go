// Package action maps entity ids to the local actions behind them.
//
// An Action is one of three variants:
//   - shell: a button command, fired by the "PRESS" payload
//   - switch: a command receiving "on"/"off" for the "ON"/"OFF" payloads
//   - call: a D-Bus method receiving true/false for "ON"/"OFF"
//
// The execute function of each variant is bound when the action is
// registered. Every execution is bounded by the registry timeout; a timeout
// counts as a failure and is not retried.
package action
