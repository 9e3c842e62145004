// Package session owns the device's login state.
//
// A Manager holds the current token and user profile in memory and mirrors
// every change to a key-value store before the change is reported done.
// Storage faults never escape the Manager: a session that cannot be read is
// treated as logged out, and one that cannot be written stays in memory.
// Both cases are logged with storage_fault=true and counted.
//
// Subscribers receive an Event after every state change; the route guard
// uses them to move the user between the sign-in and main areas.
package session
