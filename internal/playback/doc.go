// Package playback turns play intents into Web API calls against the local device.
//
// # Resolution
//
// [Resolve] derives a track URI from any [models.TrackInput], trying in order the URI, the ID,
// the open.spotify.com link and the API href. [ResolvePlaylist] does the same for playlists.
//
// # Registration
//
// A [Registrar] tracks the local [models.Device]. The device is usable only once the player has
// reported it ready; before each play command the registrar lists the account's devices and
// transfers playback to the local one without starting it.
//
// # Controller
//
// [Controller] owns the [models.PlaybackState] and serializes all commands. A play request made
// before the device is ready is queued (one slot, newest wins) and replayed by
// [Controller.SetDeviceReady]. A ready request runs as one bounded call chain:
//
//	attempt 0: register, play
//	  registration error or 404 -> wait RetryDelay, attempt n+1 (n < MaxRetries)
//	  403 -> premium account required (terminal)
//	  401 or refresh failure -> auth error (terminal)
//	  anything else -> playback error (terminal)
//	attempt MaxRetries failing -> device marked not ready, registration error
//
// Failures are returned as [*Error] and their message is stored in the state's Error field.
package playback
