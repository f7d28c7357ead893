package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamingStrategy(t *testing.T) {
	assert.Equal(t, "users", NamingStrategy{}.TableName("user"))
	assert.Equal(t, "user", NamingStrategy{SingularTable: true}.TableName("user"))
	assert.Equal(t, "app_people", NamingStrategy{TablePrefix: "app_"}.TableName("person"))
}
