package attribute

import (
	"strings"
	"testing"
)

func TestLookupBuiltin_Valid(t *testing.T) {
	tests := []struct {
		name          string
		expectedName  string
		expectedLevel Level
	}{
		// Study level attributes
		{"studyInstanceUid", "studyInstanceUid", LevelStudy},
		{"studyDescription", "studyDescription", LevelStudy},
		{"studyDate", "studyDate", LevelStudy},
		{"patientId", "patientId", LevelStudy},
		{"accessionNumber", "accessionNumber", LevelStudy},

		// Series level attributes
		{"seriesInstanceUid", "seriesInstanceUid", LevelSeries},
		{"seriesDescription", "seriesDescription", LevelSeries},
		{"seriesNumber", "seriesNumber", LevelSeries},
		{"modality", "modality", LevelSeries},
		{"bodyPartExamined", "bodyPartExamined", LevelSeries},

		// Instance level attributes
		{"sopInstanceUid", "sopInstanceUid", LevelInstance},
		{"instanceNumber", "instanceNumber", LevelInstance},
		{"rows", "rows", LevelInstance},
		{"columns", "columns", LevelInstance},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info, err := LookupBuiltin(tc.name)
			if err != nil {
				t.Fatalf("LookupBuiltin(%q) returned error: %v", tc.name, err)
			}
			if info.Name != tc.expectedName {
				t.Errorf("LookupBuiltin(%q).Name = %q, want %q", tc.name, info.Name, tc.expectedName)
			}
			if info.Level != tc.expectedLevel {
				t.Errorf("LookupBuiltin(%q).Level = %q, want %q", tc.name, info.Level, tc.expectedLevel)
			}
		})
	}
}

func TestLookupBuiltin_CaseInsensitive(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"MODALITY", "modality"},
		{"Modality", "modality"},
		{"SeriesDescription", "seriesDescription"},
		{"STUDYINSTANCEUID", "studyInstanceUid"},
		{"  seriesNumber  ", "seriesNumber"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			info, err := LookupBuiltin(tc.input)
			if err != nil {
				t.Fatalf("LookupBuiltin(%q) returned error: %v", tc.input, err)
			}
			if info.Name != tc.expected {
				t.Errorf("LookupBuiltin(%q).Name = %q, want %q", tc.input, info.Name, tc.expected)
			}
		})
	}
}

func TestLookupBuiltin_Suggestion(t *testing.T) {
	tests := []struct {
		typo       string
		suggestion string
	}{
		{"modallity", "modality"},
		{"seriesDescripton", "seriesDescription"},
		{"studyDat", "studyDate"},
		{"instanceNumer", "instanceNumber"},
	}

	for _, tc := range tests {
		t.Run(tc.typo, func(t *testing.T) {
			_, err := LookupBuiltin(tc.typo)
			if err == nil {
				t.Fatalf("LookupBuiltin(%q) should return error", tc.typo)
			}
			if !strings.Contains(err.Error(), tc.suggestion) {
				t.Errorf("Error for %q should suggest %q, got: %v", tc.typo, tc.suggestion, err)
			}
		})
	}
}

func TestLookupBuiltin_NoSuggestionForGarbage(t *testing.T) {
	_, err := LookupBuiltin("zzzzzzzzzzzzzzzzzzzz")
	if err == nil {
		t.Fatal("LookupBuiltin should return error for garbage input")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("garbage input should not produce a suggestion, got: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"study", LevelStudy, false},
		{"Series", LevelSeries, false},
		{"INSTANCE", LevelInstance, false},
		{"image", LevelInstance, false},
		{"bogus", "", true},
		{"", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			level, err := ParseLevel(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Errorf("ParseLevel(%q) should return error", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q) returned error: %v", tc.input, err)
			}
			if level != tc.expected {
				t.Errorf("ParseLevel(%q) = %q, want %q", tc.input, level, tc.expected)
			}
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"kitten", "sitting", 3},
		{"modality", "modallity", 1},
	}

	for _, tc := range tests {
		t.Run(tc.a+"_"+tc.b, func(t *testing.T) {
			result := levenshteinDistance(tc.a, tc.b)
			if result != tc.expected {
				t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tc.a, tc.b, result, tc.expected)
			}
		})
	}
}

func TestBagMerge(t *testing.T) {
	base := Bag{"modality": "CT", "seriesNumber": 1}
	overlay := Bag{"seriesNumber": 2, "seriesDescription": "AXIAL"}

	merged := base.Merge(overlay)

	if v, _ := merged.Get("modality"); v != "CT" {
		t.Errorf("merged modality = %v, want CT", v)
	}
	if v, _ := merged.Get("seriesNumber"); v != 2 {
		t.Errorf("overlay should win on collision, got seriesNumber = %v", v)
	}
	if v, _ := merged.Get("seriesDescription"); v != "AXIAL" {
		t.Errorf("merged seriesDescription = %v, want AXIAL", v)
	}

	// The inputs must stay untouched.
	if v, _ := base.Get("seriesNumber"); v != 1 {
		t.Errorf("Merge mutated its receiver: seriesNumber = %v", v)
	}
}

func TestBagGet_NilAndAbsent(t *testing.T) {
	var nilBag Bag
	if _, ok := nilBag.Get("anything"); ok {
		t.Error("nil bag should report absent")
	}

	bag := Bag{"present": "x", "explicitNil": nil}
	if _, ok := bag.Get("missing"); ok {
		t.Error("missing key should report absent")
	}
	if _, ok := bag.Get("explicitNil"); ok {
		t.Error("nil value should count as absent")
	}
	if v, ok := bag.Get("present"); !ok || v != "x" {
		t.Errorf("Get(present) = %v, %v; want x, true", v, ok)
	}
}
