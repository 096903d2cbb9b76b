// Package messages implements who may see and change a direct message.
//
// Any participant (sender or recipient) may read a message. Only the recipient may mark it read,
// and the read transition happens at most once.
package messages

import "messagely/internal/storage"

// CanRead reports whether requester is the sender or the recipient of m
func CanRead(m storage.Message, requester string) bool {
	return requester != "" && (requester == m.FromUsername || requester == m.ToUsername)
}

// CanMarkRead reports whether requester is the recipient of m
func CanMarkRead(m storage.Message, requester string) bool {
	return requester != "" && requester == m.ToUsername
}
