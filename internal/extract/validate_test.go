package extract

import (
	"strings"
	"testing"

	"github.com/dgallion1/stepdoc/internal/steptree"
)

func TestValidateAnchors_Duplicates(t *testing.T) {
	tree := steptree.Build([]steptree.StepRecord{
		{Number: "1", Name: "A", Line: 2},
		{Number: "1", Name: "B", Line: 9},
		{Number: "1", Name: "C", Line: 12},
		{Number: "2", Name: "D", Line: 20},
	})

	warnings := ValidateAnchors("pkg.a", tree)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	w := warnings[0]
	if w.Kind != KindDuplicateAnchor || w.Number != "1" {
		t.Errorf("unexpected warning: %+v", w)
	}
	if !w.Fatal() || !HasFatal(warnings) {
		t.Error("expected duplicate anchor to be fatal")
	}
	if !strings.Contains(w.String(), "pkg.a:") {
		t.Errorf("expected module in message, got %q", w.String())
	}
}

func TestValidateAnchors_Clean(t *testing.T) {
	tree := steptree.Build([]steptree.StepRecord{{Number: "1"}, {Number: "1.1"}, {Number: "2"}})
	if warnings := ValidateAnchors("m", tree); len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
}

func TestValidateRecords(t *testing.T) {
	records := []steptree.StepRecord{
		{Number: "1", Name: "Load"},
		{Number: "2.1", Name: "Orphan"},
		{Number: "x.1", Name: "Bad"},
		{Number: "3", Name: ""},
		{Number: "4", Name: "Remote", SourceModule: "pkg.other"},
	}

	warnings := ValidateRecords("pkg.a", records)
	kinds := map[string]string{}
	for _, w := range warnings {
		kinds[w.Number] = w.Kind
	}
	if kinds["2.1"] != KindMissingParent {
		t.Errorf("expected missing parent for 2.1, got %q", kinds["2.1"])
	}
	if kinds["x.1"] != KindInvalidNumber {
		t.Errorf("expected invalid number for x.1, got %q", kinds["x.1"])
	}
	if kinds["3"] != KindEmptyName {
		t.Errorf("expected empty name for 3, got %q", kinds["3"])
	}
	if _, ok := kinds["1"]; ok {
		t.Error("expected no warning for step 1")
	}
	if HasFatal(warnings) {
		t.Error("expected record warnings to be non-fatal")
	}
}
