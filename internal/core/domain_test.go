package core

import "testing"

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]ExpenseCategory{
		"venue":        CategoryVenue,
		" Alcohol ":    CategoryAlcohol,
		"FOOD":         CategoryFood,
		"decorations":  CategoryDecorations,
		"other":        CategoryOther,
		"":             CategoryOther,
		"merchandise":  CategoryOther,
	}
	for in, want := range cases {
		if got := NormalizeCategory(in); got != want {
			t.Fatalf("%q: want %q got %q", in, want, got)
		}
	}
	if ExpenseCategory("merch").Label() != "Other" {
		t.Fatalf("unknown category should label as Other")
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{ChapterID: "c1", Amount: Money{Cents: 100}, Status: ExpenseApproved, Category: CategoryFood}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Expense{
		{Amount: Money{Cents: 1}, Status: ExpenseApproved},
		{ChapterID: "c1", Amount: Money{Cents: -1}, Status: ExpenseApproved},
		{ChapterID: "c1", Amount: Money{Cents: 1}, Status: "void"},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTierValid(t *testing.T) {
	for _, tier := range []Tier{TierFree, TierPremium, TierEnterprise} {
		if !tier.Valid() {
			t.Fatalf("%q should be valid", tier)
		}
	}
	if Tier("platinum").Valid() {
		t.Fatalf("platinum should be invalid")
	}
}
