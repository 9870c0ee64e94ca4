// Package pubsub broadcasts JSON payloads over redis pub/sub.
//
// The start command publishes every recomputed feed projection on
// <channel_prefix><feed>; the watch command subscribes to the same channels.
package pubsub
