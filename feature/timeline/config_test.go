package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_InsertMode(t *testing.T) {
	assert.Equal(t, InsertPrepend, Config{Insert: "prepend"}.InsertMode())
	assert.Equal(t, InsertAppend, Config{Insert: "append"}.InsertMode())
	assert.Equal(t, InsertAppend, Config{}.InsertMode())
	assert.Equal(t, InsertAppend, Config{Insert: "sideways"}.InsertMode())
}
