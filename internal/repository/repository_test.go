package repository

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/gorm"
)

// newTestDB opens a uniquely named shared in-memory database so connection
// pooling inside gorm does not split state across connections.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return db
}
