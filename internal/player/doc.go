// Package player connects to the endpoint that actually produces sound and keeps the playback
// controller informed about it.
//
// A [Player] reports its lifecycle as [Event]s on a buffered channel; events that do not fit are
// dropped rather than blocking the player. [ConnectPlayer] drives an existing Spotify Connect
// device through the Web API and polls it for presence and state.
//
// [Manager] owns the current player. It connects one when the session becomes authenticated,
// tears it down on logout or when connecting fails, and translates events into controller calls:
//
//	ready                -> MarkDeviceReady, release WaitReady, Replay the queued request
//	not_ready            -> MarkNotReady
//	player_state_changed -> UpdateFromPlayerState
//	initialization_error, account_error -> recorded error
//	authentication_error -> forced refresh and reconnect, once until the next ready
package player
