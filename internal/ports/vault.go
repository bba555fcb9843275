package ports

// Vault encrypts and decrypts stored secrets. Decrypt reports failure
// explicitly; it never returns the input as if it were plaintext.
type Vault interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(token string) (string, error)
}
