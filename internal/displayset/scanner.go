package displayset

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/mrsinham/hangforge/internal/hanging/attribute"
)

// studyTags maps study-level attribute names to the DICOM tags they are read
// from.
var studyTags = map[string]tag.Tag{
	"studyInstanceUid": tag.StudyInstanceUID,
	"studyDescription": tag.StudyDescription,
	"studyDate":        tag.StudyDate,
	"studyTime":        tag.StudyTime,
	"patientId":        tag.PatientID,
	"patientName":      tag.PatientName,
	"patientSex":       tag.PatientSex,
	"patientBirthDate": tag.PatientBirthDate,
	"accessionNumber":  tag.AccessionNumber,
	"institutionName":  tag.InstitutionName,
}

// seriesTags maps series-level attribute names to their DICOM tags.
var seriesTags = map[string]tag.Tag{
	"seriesInstanceUid": tag.SeriesInstanceUID,
	"seriesDescription": tag.SeriesDescription,
	"seriesNumber":      tag.SeriesNumber,
	"seriesDate":        tag.SeriesDate,
	"modality":          tag.Modality,
	"bodyPartExamined":  tag.BodyPartExamined,
	"protocolName":      tag.ProtocolName,
	"manufacturer":      tag.Manufacturer,
}

// instanceTags maps instance-level attribute names to their DICOM tags.
var instanceTags = map[string]tag.Tag{
	"sopInstanceUid": tag.SOPInstanceUID,
	"sopClassUid":    tag.SOPClassUID,
	"instanceNumber": tag.InstanceNumber,
	"rows":           tag.Rows,
	"columns":        tag.Columns,
	"sliceThickness": tag.SliceThickness,
}

// numeric attributes are coerced to ints when their string form parses.
var numericAttributes = map[string]bool{
	"seriesNumber":   true,
	"instanceNumber": true,
	"rows":           true,
	"columns":        true,
}

// instanceRecord carries the per-instance data collected while scanning,
// before grouping into display sets.
type instanceRecord struct {
	sopInstanceUID string
	number         int
	study          attribute.Bag
	series         attribute.Bag
	instance       attribute.Bag
}

// Scanner reads DICOM files from disk and groups them into display sets, one
// per series. Files that fail to parse are skipped with a diagnostic.
type Scanner struct {
	logger *log.Logger
}

// NewScanner creates a scanner. A nil logger falls back to the default.
func NewScanner(logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{logger: logger}
}

// ScanDirectory walks dir recursively, parses every DICOM file found and
// groups instances into display sets keyed by series instance UID. The
// result is sorted deterministically (see Sort).
func (s *Scanner) ScanDirectory(dir string) ([]*DisplaySet, error) {
	bySeries := make(map[string][]instanceRecord)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.EqualFold(d.Name(), "DICOMDIR") {
			return nil
		}

		ds, parseErr := dicom.ParseFile(path, nil)
		if parseErr != nil {
			s.logger.Debugf("skipping %s: not a parseable DICOM file: %v", path, parseErr)
			return nil
		}

		rec := extractInstance(ds)
		seriesUID, _ := rec.series.Get("seriesInstanceUid")
		if seriesUID == nil {
			s.logger.Warnf("skipping %s: no SeriesInstanceUID", path)
			return nil
		}
		key := fmt.Sprint(seriesUID)
		bySeries[key] = append(bySeries[key], rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", dir, err)
	}
	if len(bySeries) == 0 {
		return nil, fmt.Errorf("no DICOM files found under %q", dir)
	}

	sets := make([]*DisplaySet, 0, len(bySeries))
	for seriesUID, records := range bySeries {
		sets = append(sets, buildDisplaySet(seriesUID, records))
	}

	Sort(sets)
	s.logger.Debugf("scanned %s: %d display sets", dir, len(sets))
	return sets, nil
}

// buildDisplaySet folds the records of one series into a display set. The
// instance bag comes from the lowest-numbered instance; numImages reflects
// the full instance count.
func buildDisplaySet(seriesUID string, records []instanceRecord) *DisplaySet {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].number != records[j].number {
			return records[i].number < records[j].number
		}
		return records[i].sopInstanceUID < records[j].sopInstanceUID
	})

	first := records[0]
	ds := &DisplaySet{
		SeriesInstanceUID: seriesUID,
		Study:             first.study,
		Series:            first.series,
		Instance:          first.instance,
	}
	if v, ok := first.study.Get("studyInstanceUid"); ok {
		ds.StudyInstanceUID = fmt.Sprint(v)
	}
	for _, rec := range records {
		if rec.sopInstanceUID != "" {
			ds.SOPInstanceUIDs = append(ds.SOPInstanceUIDs, rec.sopInstanceUID)
		}
	}
	ds.Series["numImages"] = len(records)
	return ds
}

func extractInstance(ds dicom.Dataset) instanceRecord {
	rec := instanceRecord{
		study:    extractBag(ds, studyTags),
		series:   extractBag(ds, seriesTags),
		instance: extractBag(ds, instanceTags),
	}
	if v, ok := rec.instance.Get("sopInstanceUid"); ok {
		rec.sopInstanceUID = fmt.Sprint(v)
	}
	if v, ok := rec.instance.Get("instanceNumber"); ok {
		if n, ok := v.(int); ok {
			rec.number = n
		}
	}
	return rec
}

func extractBag(ds dicom.Dataset, tags map[string]tag.Tag) attribute.Bag {
	bag := attribute.Bag{}
	for name, t := range tags {
		value, ok := elementValue(ds, t)
		if !ok {
			continue
		}
		if numericAttributes[name] {
			value = intify(value)
		}
		bag[name] = value
	}
	return bag
}

// elementValue extracts the first value of an element, tolerating the value
// shapes the parser produces for the different VRs.
func elementValue(ds dicom.Dataset, t tag.Tag) (any, bool) {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem == nil {
		return nil, false
	}
	switch v := elem.Value.GetValue().(type) {
	case []string:
		if len(v) == 0 {
			return nil, false
		}
		s := strings.TrimSpace(v[0])
		if s == "" {
			return nil, false
		}
		return s, true
	case []int:
		if len(v) == 0 {
			return nil, false
		}
		return v[0], true
	case []float64:
		if len(v) == 0 {
			return nil, false
		}
		return v[0], true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, false
		}
		return s, true
	case int:
		return v, true
	case float64:
		return v, true
	default:
		return nil, false
	}
}

// intify converts string-encoded integers (IS values) to ints so that
// numeric rule comparisons work without per-rule coercion.
func intify(value any) any {
	switch v := value.(type) {
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return value
}
