package pkg

import "golang.org/x/crypto/bcrypt"

const PasswordHashCost = 14

func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, PasswordHashCost)
}

// HashPasswordWithCost is HashPassword with an explicit bcrypt cost,
// mostly useful to keep tests fast.
func HashPasswordWithCost(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return BytesToString(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
