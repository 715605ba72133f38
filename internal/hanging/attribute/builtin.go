package attribute

import (
	"fmt"
	"strings"
)

// Info describes a built-in attribute known to the matching engine.
type Info struct {
	Name  string
	Level Level
}

// builtinRegistry maps lowercase attribute names to their Info.
var builtinRegistry = map[string]Info{
	// Study level attributes
	"studyinstanceuid":   {Name: "studyInstanceUid", Level: LevelStudy},
	"studydescription":   {Name: "studyDescription", Level: LevelStudy},
	"studydate":          {Name: "studyDate", Level: LevelStudy},
	"studytime":          {Name: "studyTime", Level: LevelStudy},
	"patientid":          {Name: "patientId", Level: LevelStudy},
	"patientname":        {Name: "patientName", Level: LevelStudy},
	"patientsex":         {Name: "patientSex", Level: LevelStudy},
	"patientbirthdate":   {Name: "patientBirthDate", Level: LevelStudy},
	"accessionnumber":    {Name: "accessionNumber", Level: LevelStudy},
	"institutionname":    {Name: "institutionName", Level: LevelStudy},
	"numberofpriors":     {Name: "numberOfPriors", Level: LevelStudy},
	"abstractpriorvalue": {Name: "abstractPriorValue", Level: LevelStudy},

	// Series level attributes
	"seriesinstanceuid": {Name: "seriesInstanceUid", Level: LevelSeries},
	"seriesdescription": {Name: "seriesDescription", Level: LevelSeries},
	"seriesnumber":      {Name: "seriesNumber", Level: LevelSeries},
	"seriesdate":        {Name: "seriesDate", Level: LevelSeries},
	"modality":          {Name: "modality", Level: LevelSeries},
	"bodypartexamined":  {Name: "bodyPartExamined", Level: LevelSeries},
	"protocolname":      {Name: "protocolName", Level: LevelSeries},
	"manufacturer":      {Name: "manufacturer", Level: LevelSeries},
	"numimages":         {Name: "numImages", Level: LevelSeries},

	// Instance level attributes
	"sopinstanceuid": {Name: "sopInstanceUid", Level: LevelInstance},
	"sopclassuid":    {Name: "sopClassUid", Level: LevelInstance},
	"instancenumber": {Name: "instanceNumber", Level: LevelInstance},
	"rows":           {Name: "rows", Level: LevelInstance},
	"columns":        {Name: "columns", Level: LevelInstance},
	"slicethickness": {Name: "sliceThickness", Level: LevelInstance},
}

// Builtins returns the Info for every built-in attribute at the given level.
func Builtins(level Level) []Info {
	var out []Info
	for _, info := range builtinRegistry {
		if info.Level == level {
			out = append(out, info)
		}
	}
	return out
}

// LookupBuiltin returns Info for a given built-in attribute name.
// The lookup is case-insensitive. If the attribute is not found, an error is
// returned with a suggestion for the closest matching name (using Levenshtein
// distance).
func LookupBuiltin(name string) (Info, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))

	if info, ok := builtinRegistry[normalized]; ok {
		return info, nil
	}

	suggestion := findClosestBuiltin(normalized)
	if suggestion != "" {
		return Info{}, fmt.Errorf("unknown attribute %q, did you mean %q?", name, suggestion)
	}

	return Info{}, fmt.Errorf("unknown attribute %q", name)
}

// findClosestBuiltin finds the closest matching attribute name using
// Levenshtein distance. Returns empty string if no close match is found
// (distance > 5).
func findClosestBuiltin(input string) string {
	const maxDistance = 5
	bestDistance := maxDistance + 1
	var bestMatch string

	for key, info := range builtinRegistry {
		distance := levenshteinDistance(input, key)
		if distance < bestDistance {
			bestDistance = distance
			bestMatch = info.Name
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// levenshteinDistance calculates the Levenshtein distance between two strings.
// This is the minimum number of single-character edits (insertions, deletions,
// or substitutions) required to change one string into the other.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
	}

	for i := 0; i <= len(a); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}

			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}
