// Package nats connects a strip node to a NATS server.
//
// # Architecture
//
//   - Bridge: runs inside the daemon, forwards command payloads from NATS
//     onto the event bus and mirrors state changes back out
//   - Publisher: one-shot producer used by the send command
//
// # Subjects
//
//	stripnode.strip.command   # JSON command (producer → node)
//	stripnode.strip.state     # StateMessage (node → observers)
//
// The command subject is configurable; the state subject follows it by
// replacing a trailing ".command" with ".state". Messaging is core NATS
// only, fire-and-forget. Command payloads are not parsed here, so a
// malformed command is logged and dropped by the strip task like any
// other source.
//
// # Debugging with nats CLI
//
// Watch state announcements:
//
//	nats sub "stripnode.strip.state"
//
// Turn the strip on with a slow blue breathe:
//
//	nats pub "stripnode.strip.command" \
//	  '{"enable":true,"status":{"frequency":0.2,"scale":0.5,"red":0,"green":0,"blue":255}}'
//
// Turn it off:
//
//	nats pub "stripnode.strip.command" '{"enable":false}'
package nats
