package hash

import "golang.org/x/crypto/bcrypt"

const cost = 10

func Password(plaintext string) (string, error) {
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hashbytes), nil
}

func Check(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
