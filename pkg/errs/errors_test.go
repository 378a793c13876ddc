package errs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationListsEveryProblem(t *testing.T) {
	err := Validation("vlans", []string{"config[0].vlan_id is required", "config[1].mtu must be >= 1280"})
	require.Error(t, err)
	assert.Equal(t, "vlans: validation failed:\n - config[0].vlan_id is required\n - config[1].mtu must be >= 1280", err.Error())
	assert.True(t, Is(err, KindValidation))
	assert.False(t, Is(err, KindParse))
	assert.Len(t, Problems(err), 2)
}

func TestValidationWithoutProblemsIsNil(t *testing.T) {
	assert.NoError(t, Validation("vlans", nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("gather: %w", Parse("vlans", "line %d: mtu %q is not a number", 3, "abc"))
	assert.True(t, Is(err, KindParse))
	assert.Contains(t, err.Error(), `vlans: parse failed: line 3: mtu "abc" is not a number`)

	err = fmt.Errorf("run: %w", Unsupported("l2_interfaces", "purged"))
	assert.True(t, Is(err, KindUnsupported))
	assert.Nil(t, Problems(err))
}
