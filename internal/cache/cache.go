package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/ppiankov/mrsurvey/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a cache key from survey parameters. The worker count
// does not change a seeded result, so it is left out of the key.
func CacheKey(p model.SurveyParams) string {
	p.Workers = 0
	data, _ := json.Marshal(p) // plain struct of scalars, cannot fail
	hash := sha256.Sum256(data)
	return "mrsurvey:v1:" + hex.EncodeToString(hash[:])
}
