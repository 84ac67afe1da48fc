package schemas

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_RFPEntities(t *testing.T) {
	assert.NoError(t, Validate(RFPEntities, []byte(`{"areas":[25000,20000],"costs":[3000],"dates":["2024-12-15"]}`)))

	err := Validate(RFPEntities, []byte(`{"costs":[3000]}`))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, RFPEntities, ve.Schema)
	assert.NotEmpty(t, ve.Errors)

	err = Validate(RFPEntities, []byte(`{"areas":["lots"]}`))
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "areas.0", ve.Errors[0].Field)
}

func TestValidate_ProcessRequest(t *testing.T) {
	assert.NoError(t, Validate(ProcessRequest, []byte(`{"text":"Paint 100 sq ft"}`)))
	assert.NoError(t, Validate(ProcessRequest, []byte(`{"url":"https://example.com/rfp"}`)))
	assert.Error(t, Validate(ProcessRequest, []byte(`{}`)))
	assert.Error(t, Validate(ProcessRequest, []byte(`{"text":"x","title":5}`)))
	assert.Error(t, Validate(ProcessRequest, []byte(`{"text":"x","test_policy":"all"}`)), "unknown fields are rejected")
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("nope", []byte(`{}`))
	var le *SchemaLoadError
	require.True(t, errors.As(err, &le))
	assert.Contains(t, le.Error(), "unknown schema")
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := Validate(Catalog, []byte(`{not json`))
	var le *SchemaLoadError
	assert.True(t, errors.As(err, &le))
}

func TestValidateFile_Catalog(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"vendors":[{"name":"A","products":[
		{"id":"p1","name":"P","category":"Exterior","finish":"Matt","coverage":140,"durability":12,"cost":285.5,"reliability":95,"lead_time":7}]}]}`), 0o644))
	assert.NoError(t, ValidateFile(Catalog, good))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"vendors":[{"name":"A","products":[{"id":"p1","reliability":150}]}]}`), 0o644))
	assert.Error(t, ValidateFile(Catalog, bad))

	assert.Error(t, ValidateFile(Catalog, filepath.Join(dir, "missing.json")))
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type":"object","required":["name"]}`
	assert.NoError(t, ValidateJSONString(schema, `{"name":"x"}`))

	err := ValidateJSONString(schema, `{}`)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Error(), "(root)")
}
