/*
Package session keeps the live application sessions of a process.

A Manager owns one wizard.Machine per session id, restores it from the draft
store on first access and serializes operations on the same session, across
replicas too when a distributed locker is configured.
*/
package session
