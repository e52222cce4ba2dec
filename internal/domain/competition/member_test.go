package competition

import (
	"errors"
	"testing"

	"github.com/bytedance/sonic"
)

func member(t *testing.T, raw string) Member {
	t.Helper()
	m, err := ParseMember([]byte(raw))
	if err != nil {
		t.Fatalf("parse member %s: %v", raw, err)
	}
	return m
}

func TestParseMember(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantID  string
		wantErr bool
	}{
		{name: "string id", raw: `{"id":"p1","name":"Sabelo","position":"GK","number":"1"}`, wantID: "p1"},
		{name: "numeric id", raw: `{"id":7,"name":"Felix","number":7}`, wantID: "7"},
		{name: "padded id", raw: ` {"id":" p2 "} `, wantID: "p2"},
		{name: "missing id", raw: `{"name":"Unknown"}`, wantID: ""},
		{name: "null id", raw: `{"id":null}`, wantID: ""},
		{name: "object id", raw: `{"id":{"v":1}}`, wantErr: true},
		{name: "array", raw: `["p1"]`, wantErr: true},
		{name: "broken", raw: `{"id":`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseMember([]byte(tc.raw))
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidMember) {
					t.Fatalf("expected ErrInvalidMember, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got.ID != tc.wantID {
				t.Fatalf("id = %q, want %q", got.ID, tc.wantID)
			}
		})
	}
}

func TestMember_JSONKeepsUnmodelledFields(t *testing.T) {
	raw := `[{"id":"p1","name":"Sabelo","position":"GK","number":"1"},{"id":7,"name":"Felix","caps":12}]`

	var members []Member
	if err := sonic.Unmarshal([]byte(raw), &members); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if members[0].ID != "p1" || members[1].ID != "7" {
		t.Fatalf("unexpected ids %q %q", members[0].ID, members[1].ID)
	}

	out, err := sonic.Marshal(members)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != raw {
		t.Fatalf("members changed on the way through:\n got %s\nwant %s", out, raw)
	}

	bare, err := sonic.Marshal(Member{ID: "p9"})
	if err != nil {
		t.Fatalf("marshal bare: %v", err)
	}
	if string(bare) != `{"id":"p9"}` {
		t.Fatalf("unexpected bare member %s", bare)
	}
}

func TestUnionMembers_NumericAndMissingIDs(t *testing.T) {
	primary := []Member{member(t, `{"id":7,"name":"Felix"}`), member(t, `{"name":"Trialist"}`)}
	secondary := []Member{member(t, `{"id":"7","name":"Felix B."}`), member(t, `{"name":"Trialist"}`)}

	got, added := unionMembers(primary, secondary)
	if added != 1 || len(got) != 3 {
		t.Fatalf("expected only the id-less member to be added, got %d %+v", added, got)
	}
	if string(got[0].Doc) != `{"id":7,"name":"Felix"}` {
		t.Fatalf("primary entry must win, got %s", got[0].Doc)
	}
}
