package schemex_test

import (
	"encoding/json"
	"testing"

	"github.com/fwojciec/schemex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		schema  schemex.Schema
		wantErr string
	}{
		{name: "valid", schema: schemex.Schema{"Scheme Name", "Tags"}},
		{name: "empty", schema: nil, wantErr: "at least one field"},
		{name: "blank field", schema: schemex.Schema{"Scheme Name", "  "}, wantErr: "field name required"},
		{name: "duplicate", schema: schemex.Schema{"Tags", "Tags"}, wantErr: "duplicate"},
		{name: "reserved URL", schema: schemex.Schema{"URL"}, wantErr: "reserved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.schema.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, schemex.EINVALID, schemex.ErrorCode(err))
			assert.Contains(t, schemex.ErrorMessage(err), tt.wantErr)
		})
	}
}

func TestSchema_Columns(t *testing.T) {
	t.Parallel()

	schema := schemex.Schema{"Scheme Name", "Tags"}

	assert.Equal(t, []string{"Scheme Name", "Tags", "URL"}, schema.Columns())
	assert.Len(t, schema, 2, "Columns must not modify the schema")
}

func TestRecord_MarshalJSON_PreservesFieldOrder(t *testing.T) {
	t.Parallel()

	rec := schemex.NewRecord()
	rec.Set("Scheme Name", "PM Kisan")
	rec.Set("Application Process", nil)
	rec.Set("URL", "https://example.com/a")

	b, err := json.Marshal(rec)

	require.NoError(t, err)
	assert.Equal(t, `{"Scheme Name":"PM Kisan","Application Process":null,"URL":"https://example.com/a"}`, string(b))
}

func TestRecord_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var rec schemex.Record
	err := json.Unmarshal([]byte(`{"b":"2","a":null,"c":["x","y"]}`), &rec)

	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, rec.Fields())
	assert.Equal(t, "2", rec.Text("b"))
	assert.Equal(t, "", rec.Text("a"))
	assert.Equal(t, `["x","y"]`, rec.Text("c"))
}

func TestRecord_ZeroValue(t *testing.T) {
	t.Parallel()

	var rec schemex.Record

	_, ok := rec.Get("anything")
	assert.False(t, ok)
	assert.Equal(t, 0, rec.Len())
	assert.Empty(t, rec.Fields())

	rec.Set("Tags", "a")
	assert.Equal(t, 1, rec.Len())
}

func TestExtractionResult_Empty(t *testing.T) {
	t.Parallel()

	var nilResult *schemex.ExtractionResult
	assert.True(t, nilResult.Empty())

	result := schemex.NewExtractionResult("https://example.com")
	assert.True(t, result.Empty())

	b, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"listings":[]}`, string(b))

	result.Records = append(result.Records, schemex.NewRecord())
	assert.False(t, result.Empty())
}
