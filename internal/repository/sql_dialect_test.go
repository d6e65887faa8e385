package repository

import (
	"testing"
)

func TestKeywordLikeConditionByDialectSQLite(t *testing.T) {
	condition, argCount := keywordLikeConditionByDialect("sqlite", []string{"email", "display_name"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	want := "email LIKE ? OR display_name LIKE ?"
	if condition != want {
		t.Fatalf("condition want %q got %q", want, condition)
	}
}

func TestKeywordLikeConditionByDialectPostgres(t *testing.T) {
	condition, argCount := keywordLikeConditionByDialect("postgres", []string{"email", "display_name"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	want := "email ILIKE ? OR display_name ILIKE ?"
	if condition != want {
		t.Fatalf("condition want %q got %q", want, condition)
	}
}

func TestKeywordLikeConditionSkipsBlankColumns(t *testing.T) {
	condition, argCount := keywordLikeConditionByDialect("sqlite", []string{"order_no", "  ", ""})
	if argCount != 1 {
		t.Fatalf("arg count want 1 got %d", argCount)
	}
	if condition != "order_no LIKE ?" {
		t.Fatalf("condition want order_no LIKE ? got %q", condition)
	}
}

func TestKeywordLikeConditionNilDBFallsBackToSQLite(t *testing.T) {
	condition, argCount := keywordLikeCondition(nil, "email")
	if argCount != 1 {
		t.Fatalf("arg count want 1 got %d", argCount)
	}
	if condition != "email LIKE ?" {
		t.Fatalf("condition want email LIKE ? got %q", condition)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%test%", 3)
	if len(args) != 3 {
		t.Fatalf("args len want 3 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%test%" {
			t.Fatalf("args[%d] want %%test%% got %v", idx, arg)
		}
	}
}
