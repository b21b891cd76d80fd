package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnect_InvalidURL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, "postgres://nobody@127.0.0.1:1/none?connect_timeout=1")
	assert.Error(t, err)

	_, err = Connect(ctx, "::not a url::")
	assert.ErrorContains(t, err, "failed to connect")
}

func TestSchemaDeclaresProfilesTable(t *testing.T) {
	assert.Contains(t, schema, "PRIMARY KEY (session_id, name)")
	assert.Contains(t, schema, "WHERE is_default")
}
