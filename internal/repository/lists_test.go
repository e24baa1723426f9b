package repository

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeStringList(t *testing.T) {
	assert.Nil(t, encodeStringList(nil))
	assert.Nil(t, encodeStringList([]string{}))
	assert.Equal(t, `["stage","kitchen"]`, encodeStringList([]string{"stage", "kitchen"}))
}

func TestDecodeStringList(t *testing.T) {
	assert.Empty(t, decodeStringList(sql.NullString{}))
	assert.Empty(t, decodeStringList(sql.NullString{String: "", Valid: true}))
	assert.Empty(t, decodeStringList(sql.NullString{String: "not json", Valid: true}),
		"malformed payloads decode to an empty list rather than erroring")
	assert.Equal(t, []string{"stage", "kitchen"},
		decodeStringList(sql.NullString{String: `["stage","kitchen"]`, Valid: true}))
}
