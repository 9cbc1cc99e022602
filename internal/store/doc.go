// Package store keeps the dashboard's lecture views in memory.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [LectureView]: Storage representation of one followed job
//
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers will miss updates rather than block the polling sessions).
package store
