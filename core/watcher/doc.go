// Package watcher turns fsnotify notifications on the input trees into variant events.
//
// Every directory below the watched roots is registered with fsnotify, and directories
// created later are added as they appear. Events are delivered to the handler one at a
// time from a single goroutine, in the order fsnotify reports them.
//
// # Event mapping
//
//   - Create, Write: variant.UpdateEvent. A created directory also yields an update for
//     every entry already inside it, since those were never observed individually.
//   - Remove, Rename: variant.RemoveEvent.
//   - Chmod: variant.OtherEvent.
//
// # Lifecycle
//
// A Watcher is either Stopped or Running. Start on a running watcher returns
// ErrAlreadyRunning; Stop on a stopped watcher does nothing. Stop waits for the event
// in flight to finish, so no event is handled after it returns. A handler error or a
// fatal fsnotify error (watch or descriptor limits exhausted) ends the subscription and
// is reported by Err once Done is closed.
package watcher
