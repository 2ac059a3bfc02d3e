package canonical

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	v, err := Decode([]byte(raw))
	require.NoError(t, err)
	return v
}

func TestMarshalSortsKeys(t *testing.T) {
	v := decode(t, `{"z":1,"a":2,"m":3}`)
	b, err := Marshal(v)
	require.NoError(t, err)
	require.Equal(t, `{"a":2,"m":3,"z":1}`, string(b))
}

func TestMarshalNested(t *testing.T) {
	v := decode(t, `{"b":[1,2],"a":{"y":1,"x":2}}`)
	b, err := Marshal(v)
	require.NoError(t, err)
	require.Equal(t, `{"a":{"x":2,"y":1},"b":[1,2]}`, string(b))
}

func TestMarshalEscaping(t *testing.T) {
	v := decode(t, `"hello\nworld\ttab\"quote"`)
	b, err := Marshal(v)
	require.NoError(t, err)
	require.Equal(t, `"hello\nworld\ttab\"quote"`, string(b))
}

func TestHashStableAcrossKeyOrder(t *testing.T) {
	h1, err := Hash(decode(t, `{"hello":"world","n":1}`))
	require.NoError(t, err)
	h2, err := Hash(decode(t, `{"n":1,"hello":"world"}`))
	require.NoError(t, err)
	require.Equal(t, h1, h2)
	require.Len(t, h1, 64)
}

func TestHashPreservesNumberLexicalForm(t *testing.T) {
	a := decode(t, `{"n":1.50}`)
	b, err := Marshal(a)
	require.NoError(t, err)
	require.Equal(t, `{"n":1.50}`, string(b))
}

func TestMarshalIdempotent(t *testing.T) {
	v := decode(t, `{"a":[1,{"b":2}],"c":null,"d":true}`)
	b1, err := Marshal(v)
	require.NoError(t, err)
	v2 := decode(t, string(b1))
	b2, err := Marshal(v2)
	require.NoError(t, err)
	require.Equal(t, string(b1), string(b2))
}

func TestDecodeRoundTripIsStructurallyIdentical(t *testing.T) {
	v := decode(t, `{"a":[1,{"b":"x","c":null}],"d":true,"e":2.50}`)
	b, err := MarshalPretty(v)
	require.NoError(t, err)
	v2 := decode(t, string(b))
	if diff := cmp.Diff(v, v2); diff != "" {
		t.Errorf("round trip changed structure (-want +got):\n%s", diff)
	}
}

func TestMarshalPrettyTwoSpaceIndent(t *testing.T) {
	v := decode(t, `{"a":1,"b":[1,2]}`)
	b, err := MarshalPretty(v)
	require.NoError(t, err)
	require.Equal(t, "{\n  \"a\": 1,\n  \"b\": [\n    1,\n    2\n  ]\n}\n", string(b))
}
