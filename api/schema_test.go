package api

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestLabel_Validate(t *testing.T) {
	cases := []struct {
		name  string
		label Label
		ok    bool
	}{
		{"valid", Label{Name: "age", Width: 80, FontSize: 12}, true},
		{"zero sizes", Label{Name: "age"}, true},
		{"empty name", Label{Width: 80}, false},
		{"negative width", Label{Name: "age", Width: -1}, false},
		{"negative font", Label{Name: "age", FontSize: -1}, false},
	}
	for _, tc := range cases {
		err := tc.label.Validate()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidLabel) {
			t.Errorf("%s: err = %v, want ErrInvalidLabel", tc.name, err)
		}
	}
}

func TestTransformDef_JSONRoundTrip(t *testing.T) {
	def := TransformDef{
		Kind: KindFilter,
		Name: "match",
		Args: map[string]string{"path": "$[?(@.age > 30)]"},
	}
	data, err := json.Marshal(def)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got TransformDef
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Kind != def.Kind || got.Name != def.Name || got.Args["path"] != def.Args["path"] {
		t.Errorf("round trip changed def: %+v", got)
	}
}
