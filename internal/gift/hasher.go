package gift

// PasswordHasher abstracts password hashing so the service layer stays
// independent of the concrete algorithm and its parameters.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}
