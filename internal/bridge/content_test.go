package bridge

import "testing"

func TestExtractText_Shapes(t *testing.T) {
	cases := map[string]struct {
		raw  string
		want string
	}{
		"string":          {`"hello"`, "hello"},
		"mixed array":     {`[{"text":"a"},"b",{"text":"c"}]`, "abc"},
		"typed parts":     {`[{"type":"text","text":"x"},{"type":"image","source":{}},{"type":"tool_result","text":"y"}]`, "xy"},
		"empty array":     {`[]`, ""},
		"null":            {`null`, ""},
		"number":          {`42`, ""},
		"bool":            {`true`, ""},
		"object":          {`{"text":"not an array"}`, ""},
		"non-string text": {`[{"text":5},"z"]`, "z"},
		"missing":         {``, ""},
		"garbage":         {`{{{`, ""},
		"nested arrays":   {`[["a"],"b"]`, "b"},
	}
	for name, tc := range cases {
		if got := ExtractText(ContentFromRaw(tc.raw)); got != tc.want {
			t.Errorf("%s: ExtractText(%s) = %q, want %q", name, tc.raw, got, tc.want)
		}
	}
}

func TestContent_RoundTrip(t *testing.T) {
	c := NewTextContent(`say "hi"`)
	if got := ExtractText(c); got != `say "hi"` {
		t.Errorf("ExtractText = %q", got)
	}
	data, err := c.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(data) != `"say \"hi\""` {
		t.Errorf("MarshalJSON = %s", data)
	}

	var empty Content
	if data, _ := empty.MarshalJSON(); string(data) != "null" {
		t.Errorf("zero Content marshals to %s, want null", data)
	}
}
