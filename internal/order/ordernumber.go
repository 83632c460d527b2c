package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewOrderNumber builds the human-readable order identifier shown to
// customers, e.g. "20260115-093012-A41F0C". The column carries a unique
// index; a collision on the random suffix is retried by the caller.
func NewOrderNumber() string {
	u := uuid.New()
	return fmt.Sprintf("%s-%X", time.Now().UTC().Format("20060102-150405"), u[:3])
}
