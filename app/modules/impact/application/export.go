package impactservice

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	impactdomain "github.com/terrapulse/impact-service/app/modules/impact/domain"
)

const exportSheet = "Activities"

var exportHeader = []string{"Date", "Activity", "Quantity", "Unit", "Points", "Location"}

func exportRow(a impactdomain.Activity) []string {
	return []string{
		a.Timestamp.UTC().Format(time.RFC3339),
		a.Type.DisplayName(),
		strconv.Itoa(a.Quantity),
		a.Type.Unit(),
		strconv.Itoa(a.PointsEarned),
		a.Location,
	}
}

// EncodeActivitiesCSV writes a header row followed by one row per activity.
func EncodeActivitiesCSV(activities []impactdomain.Activity) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, a := range activities {
		if err := w.Write(exportRow(a)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeActivitiesXLSX renders the same table as a single-sheet workbook.
// Quantity and points are written as numbers.
func EncodeActivitiesXLSX(activities []impactdomain.Activity) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, a := range activities {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			a.Timestamp.UTC().Format(time.RFC3339),
			a.Type.DisplayName(),
			a.Quantity,
			a.Type.Unit(),
			a.PointsEarned,
			a.Location,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeExport(format ExportFormat, activities []impactdomain.Activity, now time.Time) (*Export, error) {
	stamp := now.UTC().Format("20060102")
	switch format {
	case ExportCSV:
		data, err := EncodeActivitiesCSV(activities)
		if err != nil {
			return nil, err
		}
		return &Export{Filename: "terrapulse-activities-" + stamp + ".csv", ContentType: "text/csv; charset=utf-8", Data: data}, nil
	case ExportXLSX:
		data, err := EncodeActivitiesXLSX(activities)
		if err != nil {
			return nil, err
		}
		return &Export{
			Filename:    "terrapulse-activities-" + stamp + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
