// Package prefs keeps the process-wide UI theme preference.
//
// A [Manager] is initialized explicitly once, writes every change through to
// its [Store], and can follow changes made by other processes sharing the
// store when the store supports it (see [RedisStore]).
package prefs
