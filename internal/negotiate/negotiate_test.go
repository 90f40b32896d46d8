package negotiate

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestCheckEmptyAllowedAlwaysSucceeds(t *testing.T) {
	result := Check("whatever/nonsense", true, nil)
	assert.Equal(t, result.Outcome, OK)
}

func TestCheckMissingWithBody(t *testing.T) {
	result := Check("", true, []string{"application/json"})
	assert.Equal(t, result.Outcome, Missing)
}

func TestCheckMissingNoBodyIsOK(t *testing.T) {
	result := Check("", false, []string{"application/json"})
	assert.Equal(t, result.Outcome, OK)
}

func TestCheckMalformed(t *testing.T) {
	result := Check("application/json; =bad", true, []string{"application/json"})
	assert.Equal(t, result.Outcome, Malformed)
}

func TestCheckAliasCollapsing(t *testing.T) {
	result := Check("text/xml; charset=utf-8", true, []string{"application/xml"})
	assert.Equal(t, result.Outcome, OK)
	assert.Equal(t, result.Canonical, "application/xml")
}

func TestCheckUnsupported(t *testing.T) {
	result := Check("application/json", true, []string{"application/xml"})
	assert.Equal(t, result.Outcome, Unsupported)
}

func TestCanonicalizeLowercasesAndStripsParams(t *testing.T) {
	canonical, err := Canonicalize("Application/JSON; charset=UTF-8")
	assert.NilError(t, err)
	assert.Equal(t, canonical, "application/json")
}
