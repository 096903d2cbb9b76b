package auth

import "time"

// EnvConfig defines fields used for parsing from environment variables.
// Values are read once at startup and passed to NewHasher and NewTokens.
type EnvConfig struct {
	SecretKey  string        `env:"SECRET_KEY,required"`
	WorkFactor int           `env:"BCRYPT_WORK_FACTOR" envDefault:"12"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}
