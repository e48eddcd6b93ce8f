package postgres

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainment(t *testing.T) {
	probe, err := json.Marshal(containment("meta.sessionId", "s1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"meta":{"sessionId":"s1"}}`, string(probe))

	probe, err = json.Marshal(containment("level", 40))
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":40}`, string(probe))
}

func TestDecode_KeepsNumbersExact(t *testing.T) {
	fields, err := decode(`{"startTime":{"$date":{"$numberLong":"1718013600000"}},"count":9007199254740993}`)
	require.NoError(t, err)

	n, ok := fields["count"].(json.Number)
	require.True(t, ok)
	assert.Equal(t, "9007199254740993", n.String())
}

func TestDecode_NullIsEmpty(t *testing.T) {
	fields, err := decode(`null`)
	require.NoError(t, err)
	assert.NotNil(t, fields)
}
