// Package models - model output vocabularies and decoding.
package models

import "fmt"

// ClassTable maps model class indices to human-readable labels for one
// model head.
type ClassTable struct {
	// Names, indexed by the model's class index.
	Names []string
}

// Name returns the label for a class index. Out-of-range indices get a
// synthetic "class_<id>" label so a mismatched vocabulary degrades to
// opaque names instead of failing the decode.
func (t *ClassTable) Name(index int) string {
	if t == nil || index < 0 || index >= len(t.Names) {
		return fmt.Sprintf("class_%d", index)
	}
	return t.Names[index]
}

// Len returns the number of labels in the table.
func (t *ClassTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Names)
}

// MapFeatureClasses is the default vocabulary of the map-feature
// detector: coarse terrain regions first, then discrete placeable
// objects.
var MapFeatureClasses = &ClassTable{Names: []string{
	"water",
	"mountain",
	"forest",
	"desert",
	"plain",
	"swamp",
	"beach",
	"snow",
	"hills",
	"valley",
	"house",
	"castle",
	"tower",
	"bridge",
	"tree",
	"rock",
	"ship",
	"wall",
	"ruin",
	"camp",
	"road",
	"village",
	"windmill",
	"statue",
	"dock",
	"field",
}}
