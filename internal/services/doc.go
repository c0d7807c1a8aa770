// Package services wraps the Spotify Web API calls playctl makes.
//
// # Transport
//
// [NewHTTPClient] stacks three round trippers:
//
//	oauth2.Transport -> refreshTransport -> limitTransport -> base
//
// The oauth2 layer stamps the bearer token. A 401 forces one refresh through the auth store and
// replays the request once. The limiter paces requests with a token bucket from golang.org/x/time/rate.
//
// # Spotify
//
// [SpotifyService] uses github.com/zmb3/spotify/v2 for the player endpoints: device listing,
// transfer, play (track URIs or a playlist context with an offset), pause, resume, seek, volume,
// skip and player state. Errors keep the HTTP status; use [StatusCode] to read it back:
//   - 404 : the device vanished, registration must be redone
//   - 403 : the account cannot control playback (not premium)
//   - 401 : the token was rejected even after a refresh
package services
