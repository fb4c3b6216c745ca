package wasm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortedCompact(t *testing.T) {
	data, err := MarshalCanonical(countModule())
	require.NoError(t, err)

	assert.True(t, json.Valid(data))
	assert.NotContains(t, string(data), " ")
	assert.NotContains(t, string(data), "\n")
	assert.Regexp(t, `^\{"data":\[\],"exports":\[\{"func":"main","name":"main"\}\],"func_table":\[\],"funcs":`, string(data))
}

func TestMarshalCanonical_Idempotent(t *testing.T) {
	a, err := MarshalCanonical(countModule())
	require.NoError(t, err)
	b, err := MarshalCanonical(countModule())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMarshalCanonical_NilModule(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)
}

func TestMarshalInstrs(t *testing.T) {
	data, err := MarshalInstrs([]Instr{
		&Const{Ty: I32, Value: 1},
		&If{
			Result: ResultOf(I32),
			Then:   []Instr{&Const{Ty: I32, Value: 0}},
			Else:   []Instr{&Const{Ty: I32, Value: 1}},
		},
		&Loop{Label: "while_0", Body: []Instr{&Branch{Label: "while_0"}}},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`[{"op":"i32.const","value":1},`+
			`{"else":[{"op":"i32.const","value":1}],"op":"if","result":"i32","then":[{"op":"i32.const","value":0}]},`+
			`{"body":[{"label":"while_0","op":"br"}],"label":"while_0","op":"loop"}]`,
		string(data))
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	data, err := marshalCanonical(map[string]any{"k": "<a&b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"k":"<a&b>"}`, string(data))
}

func TestMarshalCanonical_RejectsFloatsAndNull(t *testing.T) {
	_, err := marshalCanonical(map[string]any{"f": 1.5})
	assert.ErrorContains(t, err, "floats are forbidden")

	_, err = marshalCanonical([]any{nil})
	assert.ErrorContains(t, err, "null is forbidden")

	_, err = marshalCanonical(struct{}{})
	assert.ErrorContains(t, err, "unsupported type")
}

func TestMarshalCanonical_NFC(t *testing.T) {
	a, err := marshalCanonical("cafe\u0301")
	require.NoError(t, err)
	b, err := marshalCanonical("caf\u00e9")
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00, which sort before U+FF5E
	// in UTF-16 but after it in UTF-8.
	data, err := marshalCanonical(map[string]any{"\uFF5E": 1, "\U0001F600": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uFF5E\":1}", string(data))
}

func TestMarshalCanonical_LineSeparators(t *testing.T) {
	data, err := marshalCanonical("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(data))

	// A literal backslash followed by u2028 stays escaped.
	data, err = marshalCanonical(`x\u2028`)
	require.NoError(t, err)
	assert.Equal(t, `"x\\u2028"`, string(data))
}
