// Package capture drives the camera view behind the lead form.
//
// A Session is a state machine (Idle, PermissionPending, Live, Recording,
// Processing, Ready) owned by a single goroutine running Session.Run. Public
// methods only post messages to that goroutine, and timers post their expiry
// back the same way, so no session field is ever touched concurrently.
//
// The camera, the lens renderer and the recorder sit behind small interfaces
// so a browser bridge, a native shell or a test fake can supply them.
// FFmpegTranscoder prepares recorded video for sharing on mobile platforms.
package capture
