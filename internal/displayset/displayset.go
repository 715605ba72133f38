// Package displayset models the viewable unit the matching engine consumes:
// a group of DICOM instances (typically one series) with its study, series
// and instance attributes. Display sets come either from a JSON manifest or
// from scanning a directory of DICOM files.
package displayset

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/mrsinham/hangforge/internal/hanging/attribute"
)

// DisplaySet is a group of instances treated as a unit for viewing and
// matching. The attribute bags hold the raw built-in attributes at each
// level; custom attributes are overlaid by the matching engine.
type DisplaySet struct {
	StudyInstanceUID  string
	SeriesInstanceUID string
	SOPInstanceUIDs   []string

	Study    attribute.Bag
	Series   attribute.Bag
	Instance attribute.Bag
}

// Label returns a short human-readable identifier for the display set.
func (d *DisplaySet) Label() string {
	if desc, ok := d.Series.Get("seriesDescription"); ok {
		return fmt.Sprintf("%v (%s)", desc, d.SeriesInstanceUID)
	}
	return d.SeriesInstanceUID
}

// manifestDoc is the JSON shape of a display-set manifest.
type manifestDoc struct {
	DisplaySets []displaySetDoc `json:"displaySets"`
}

type displaySetDoc struct {
	StudyInstanceUID  string         `json:"studyInstanceUid"`
	SeriesInstanceUID string         `json:"seriesInstanceUid"`
	SOPInstanceUIDs   []string       `json:"sopInstanceUids,omitempty"`
	Study             map[string]any `json:"study,omitempty"`
	Series            map[string]any `json:"series,omitempty"`
	Instance          map[string]any `json:"instance,omitempty"`
}

// LoadManifest reads display sets from a JSON manifest file. The result is
// sorted deterministically so that downstream tie-breaking never depends on
// file ordering.
func LoadManifest(path string) ([]*DisplaySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read display-set manifest: %w", err)
	}

	var doc manifestDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse display-set manifest %q: %w", path, err)
	}

	sets := make([]*DisplaySet, 0, len(doc.DisplaySets))
	for i, dd := range doc.DisplaySets {
		if dd.SeriesInstanceUID == "" {
			return nil, fmt.Errorf("display set %d in %q has no seriesInstanceUid", i, path)
		}
		ds := &DisplaySet{
			StudyInstanceUID:  dd.StudyInstanceUID,
			SeriesInstanceUID: dd.SeriesInstanceUID,
			SOPInstanceUIDs:   dd.SOPInstanceUIDs,
			Study:             attribute.Bag(dd.Study),
			Series:            attribute.Bag(dd.Series),
			Instance:          attribute.Bag(dd.Instance),
		}
		fillIdentity(ds)
		sets = append(sets, ds)
	}

	Sort(sets)
	return sets, nil
}

// fillIdentity keeps the UID fields and the attribute bags consistent, so
// rules on studyInstanceUid/seriesInstanceUid work no matter which side the
// manifest populated.
func fillIdentity(ds *DisplaySet) {
	if ds.Study == nil {
		ds.Study = attribute.Bag{}
	}
	if ds.Series == nil {
		ds.Series = attribute.Bag{}
	}
	if ds.Instance == nil {
		ds.Instance = attribute.Bag{}
	}

	if ds.StudyInstanceUID == "" {
		if v, ok := ds.Study.Get("studyInstanceUid"); ok {
			ds.StudyInstanceUID = fmt.Sprint(v)
		}
	} else if _, ok := ds.Study.Get("studyInstanceUid"); !ok {
		ds.Study["studyInstanceUid"] = ds.StudyInstanceUID
	}

	if _, ok := ds.Series.Get("seriesInstanceUid"); !ok {
		ds.Series["seriesInstanceUid"] = ds.SeriesInstanceUID
	}

	if _, ok := ds.Series.Get("numImages"); !ok && len(ds.SOPInstanceUIDs) > 0 {
		ds.Series["numImages"] = len(ds.SOPInstanceUIDs)
	}
}

// Sort orders display sets deterministically: study date, then series
// number, then series instance UID. This is the collection order the matcher
// uses for tie-breaking.
func Sort(sets []*DisplaySet) {
	sort.SliceStable(sets, func(i, j int) bool {
		a, b := sets[i], sets[j]

		ad, _ := a.Study.Get("studyDate")
		bd, _ := b.Study.Get("studyDate")
		if as, bs := fmt.Sprint(ad), fmt.Sprint(bd); as != bs {
			return as < bs
		}

		an, aok := seriesNumber(a)
		bn, bok := seriesNumber(b)
		if aok && bok && an != bn {
			return an < bn
		}
		if aok != bok {
			return aok
		}

		return a.SeriesInstanceUID < b.SeriesInstanceUID
	})
}

func seriesNumber(ds *DisplaySet) (int, bool) {
	v, ok := ds.Series.Get("seriesNumber")
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
