package zone

import (
	"encoding/json"
	"testing"
)

func TestAssociationKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Association
		want string
	}{
		{name: "single", in: Single(1234), want: "1234"},
		{name: "list", in: List(1003, 1005), want: "1003,1005"},
		{name: "single element list", in: List(777), want: "777"},
		{name: "match all", in: Single(MatchAll), want: "-1"},
		{name: "zero", in: Association{}, want: ""},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.in.Key(); got != tc.want {
				t.Fatalf("Key() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAssociationJSONShape(t *testing.T) {
	t.Parallel()

	single, err := json.Marshal(Single(1234))
	if err != nil {
		t.Fatalf("marshal single: %v", err)
	}
	if string(single) != "1234" {
		t.Fatalf("single json = %s, want 1234", single)
	}

	list, err := json.Marshal(List(1, 2))
	if err != nil {
		t.Fatalf("marshal list: %v", err)
	}
	if string(list) != "[1,2]" {
		t.Fatalf("list json = %s, want [1,2]", list)
	}

	var decoded Association
	if err := json.Unmarshal(list, &decoded); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if !decoded.IsList() || decoded.Key() != "1,2" {
		t.Fatalf("decoded = %#v, want list 1,2", decoded)
	}
}

func TestAssociationIDsReturnsCopy(t *testing.T) {
	t.Parallel()

	assoc := List(1, 2)
	ids := assoc.IDs()
	ids[0] = 99
	if assoc.Key() != "1,2" {
		t.Fatalf("association mutated through IDs(): %s", assoc.Key())
	}
}
