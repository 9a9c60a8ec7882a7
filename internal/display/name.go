// Package display derives a human-readable display name from an opaque
// connection-assigned user id. It is pure and deterministic: the same id
// always yields the same name.
package display

import "math/bits"

var adjectives = []string{
	"Brave", "Calm", "Swift", "Mighty", "Lucky", "Clever", "Silent", "Fierce",
	"Nimble", "Rapid", "Steady", "Bold", "Witty", "Sunny", "Vivid", "Lively",
	"Cosmic", "Iron", "Silver", "Golden",
}

var nouns = []string{
	"Panda", "Tiger", "Falcon", "Wolf", "Dragon", "Fox", "Lion", "Eagle",
	"Shark", "Otter", "Hawk", "Bear", "Leopard", "Raven", "Phoenix", "Panther",
	"Dolphin", "Rhino", "Viper", "Cobra",
}

// Name returns the display name for userID, an adjective/noun pair such as
// "Swift_Falcon". The noun index is drawn from a rotated copy of the id so
// adjacent ids don't walk both lists in lockstep.
func Name(userID uint64) string {
	adjective := adjectives[userID%uint64(len(adjectives))]
	noun := nouns[bits.RotateLeft64(userID, 17)%uint64(len(nouns))]
	return adjective + "_" + noun
}
