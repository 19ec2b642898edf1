package ports

// PasswordHasher is a one-way password hash.
type PasswordHasher interface {
	Encode(plain string) (string, error)
	Matches(plain, hash string) bool
}

// TokenIssuer builds a signed, time-bounded token for a subject.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}
