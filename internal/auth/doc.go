// Package auth holds the session's OAuth token.
//
// [Store] keeps the access/refresh token pair and the time it was issued. Tokens older than
// [RefreshThreshold] are refreshed against the accounts service on demand; any failure to refresh
// clears the session, which is terminal until the user logs in again. Listeners registered with
// [Store.OnAuthChange] observe the authenticated/unauthenticated transitions.
package auth
