package authcore

import "time"

// Config carries the signing material and lifetimes for the auth core.
// The access and refresh keys are deliberately separate so a leaked access
// secret cannot forge refresh tokens, and vice versa.
type Config struct {
	AccessSigningKey  []byte
	RefreshSigningKey []byte
	Issuer            string
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	BcryptCost        int
}
