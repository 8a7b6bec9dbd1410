// Package protocol defines the JSON messages exchanged with grid session
// clients over WebSocket.
//
// Every message is a JSON object with a "type" field. Clients drive their
// session's grid:
//
//	{"type":"filter-input","text":"kit"}
//	{"type":"set-filter","text":"kitchen"}
//	{"type":"sort","column":"status"}
//	{"type":"set-sort","column":"name","direction":"desc"}
//	{"type":"toggle-row","id":"porch"}
//	{"type":"toggle-all"}
//	{"type":"clear-selection"}
//	{"type":"toggle-group","group":"offline"}
//	{"type":"set-group","column":"status"}
//	{"type":"click","id":"porch","path":["cell","row"]}
//	{"type":"device-action","id":"bridge","action":"adopt"}
//	{"type":"get-view"}
//
// The server answers with "hello" on connect, a "view" snapshot after every
// state change, the grid events "sort-changed", "selection-changed",
// "row-activated" and "action-requested", and "error" for rejected messages
// or failed actions.
package protocol
