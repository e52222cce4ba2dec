package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("public_id", "document").
		From("competitions").
		Where(Eq("public_id", "c1"), IsNull("deleted_at")).
		OrderBy("id").
		Limit(1).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT public_id, document FROM competitions WHERE public_id = $1 AND deleted_at IS NULL ORDER BY id LIMIT 1"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "c1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("competitions").
		Columns("public_id", "name").
		Values("c1", "Premier League").
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO competitions (public_id, name) VALUES ($1, $2) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "c1" || args[1] != "Premier League" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("competitions").
		Set("document", "{}").
		SetExpr("version", "version + 1").
		SetExpr("updated_at", "NOW()").
		Where(Eq("public_id", "c1"), Expr("version = ?", int64(4))).
		Suffix("RETURNING version").
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE competitions SET document = $1, version = version + 1, updated_at = NOW() WHERE public_id = $2 AND version = $3 RETURNING version"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "{}" || args[1] != "c1" || args[2] != int64(4) {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel(t *testing.T) {
	type row struct {
		PublicID string `db:"public_id"`
		Name     string `db:"name"`
		Internal int    `db:"-"`
		skipped  string
	}

	query, args, err := InsertModel("competitions", row{PublicID: "c1", Name: "Cup", skipped: "x"}, "")
	if err != nil {
		t.Fatalf("build insert model query: %v", err)
	}

	wantQuery := "INSERT INTO competitions (public_id, name) VALUES ($1, $2)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel_Errors(t *testing.T) {
	if _, _, err := InsertModel("competitions", nil, ""); err == nil {
		t.Fatalf("expected error for nil model")
	}
	if _, _, err := InsertModel("competitions", 42, ""); err == nil {
		t.Fatalf("expected error for non-struct model")
	}
	type untagged struct{ Name string }
	if _, _, err := InsertModel("competitions", untagged{Name: "x"}, ""); err == nil {
		t.Fatalf("expected error for model without db columns")
	}
}

func TestInsertBuilder_ValueCountMismatch(t *testing.T) {
	if _, _, err := InsertInto("competitions").Columns("a", "b").Values(1).ToSQL(); err == nil {
		t.Fatalf("expected error for value count mismatch")
	}
}
