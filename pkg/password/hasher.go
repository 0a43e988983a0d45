package password

// PasswordHasher defines the interface for password hashing operations.
// Implementations must be safe for concurrent use.
type PasswordHasher interface {
	// Hash generates a hash for the given password
	Hash(password string) (string, error)

	// Verify checks if the given password matches the hashed password
	Verify(password, hashedPassword string) (bool, error)
}
