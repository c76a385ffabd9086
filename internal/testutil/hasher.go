package testutil

// StubHasher is a PasswordHasher that marks passwords instead of hashing
// them. Keeps service tests fast; never use outside tests.
type StubHasher struct{}

func (StubHasher) Hash(password string) (string, error) {
	return "stub$" + password, nil
}

func (StubHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "stub$"+password, nil
}
