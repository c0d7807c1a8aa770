// Package models defines domain entities and persistence interfaces for playctl.
//
// The package contains two categories of types:
//
// 1. Value types shared by the auth, playback and player packages
//   - [Token] : access/refresh credential pair with its issue time
//   - [Device] : the local playback device and its readiness
//   - [PlaybackRequest] : a play intent, possibly queued until the device is ready
//   - [PlaybackState] : what is playing, as last reported or commanded
//   - [User], [RemoteDevice] : Web API response data
//
// 2. Persistent Entities
//   - [Session] : a stored login, implementing [Model]
//
// The Repository[T] interface defines standard CRUD operations for database access.
package models
