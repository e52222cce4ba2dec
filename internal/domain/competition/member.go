package competition

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"
)

// Member is a player or staff entry. Doc is the member's JSON object exactly
// as it was written; only the id is read out of it, for the merge union.
type Member struct {
	ID  string
	Doc []byte
}

// ParseMember reads one roster object. A numeric id keeps its literal text,
// so {"id":7} and {"id":"7"} are the same member. A missing or null id is
// allowed; such members never match another.
func ParseMember(raw []byte) (Member, error) {
	raw = bytes.TrimSpace(raw)
	if !sonic.Valid(raw) {
		return Member{}, fmt.Errorf("%w: not valid JSON", ErrInvalidMember)
	}
	root, err := sonic.Get(raw)
	if err != nil || root.TypeSafe() != ast.V_OBJECT {
		return Member{}, fmt.Errorf("%w: expected a JSON object", ErrInvalidMember)
	}

	var id string
	if node := root.Get("id"); node.Exists() {
		switch node.TypeSafe() {
		case ast.V_STRING, ast.V_NUMBER, ast.V_NULL:
			if id, err = node.String(); err != nil {
				return Member{}, fmt.Errorf("%w: read id: %v", ErrInvalidMember, err)
			}
		default:
			return Member{}, fmt.Errorf("%w: id must be a string or a number", ErrInvalidMember)
		}
	}

	return Member{ID: strings.TrimSpace(id), Doc: bytes.Clone(raw)}, nil
}

// MarshalJSON writes the stored object back untouched. A member built only
// from an id is written as {"id":...}.
func (m Member) MarshalJSON() ([]byte, error) {
	if len(m.Doc) > 0 {
		return m.Doc, nil
	}
	return sonic.Marshal(map[string]string{"id": m.ID})
}

func (m *Member) UnmarshalJSON(raw []byte) error {
	parsed, err := ParseMember(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
