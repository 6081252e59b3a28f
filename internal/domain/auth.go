package domain

// VerifiedClaim is produced once per request from a bearer credential.
type VerifiedClaim struct {
	Subject string
	Claims  map[string]any
}
