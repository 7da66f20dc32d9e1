/*
Package session implements session management and persistence orchestration.

A session holds one caller's display modes and calculation history. The Manager
serializes read-modify-write cycles per session ID with reference-counted local
mutexes, optionally backed by a distributed lock so that several replicas can
share a Redis store safely.
*/
package session
