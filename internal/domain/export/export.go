package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/okian/bathlog/internal/domain/model"
)

// Write renders rep in format f.
func Write(w io.Writer, f Format, rep Report, opts Options) error {
	switch f {
	case FormatText:
		return PlainText(w, rep.Events, opts)
	case FormatCSV:
		return CSV(w, rep.Events, opts)
	case FormatXLSX:
		return XLSX(w, rep, opts)
	}
	return ErrUnsupportedFormat
}

// PlainText writes one "YYYY-MM-DD HH:MM <icon> <label>" line per event.
func PlainText(w io.Writer, events []model.Event, opts Options) error {
	bw := bufio.NewWriter(w)
	loc := opts.loc()
	for i, e := range events {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		line := fmt.Sprintf("%s %s %s %s",
			FormatDate(e.TS, loc), FormatTime(e.TS, opts.TimeFormat, loc), opts.icon(e.Type), e.Type.Label())
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

var csvHeader = []string{"Date", "Time", "Type", "Timestamp"}

// CSV writes a header and one row per event.
func CSV(w io.Writer, events []model.Event, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	loc := opts.loc()
	for _, e := range events {
		row := []string{
			FormatDate(e.TS, loc),
			FormatTime(e.TS, opts.TimeFormat, loc),
			string(e.Type),
			strconv.FormatInt(e.TS, 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const (
	sheetEvents  = "Events"
	sheetSummary = "Summary"
	sheetChart   = "Chart"
)

// XLSX writes a workbook with the event rows, the summary, and the bucketed
// series. A line chart is added only when the aggregate is chart-worthy.
func XLSX(w io.Writer, rep Report, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetEvents); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeEventsSheet(f, rep.Events, opts); err != nil {
		return err
	}
	if err := writeSummarySheet(f, rep); err != nil {
		return err
	}
	if err := writeChartSheet(f, rep); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeEventsSheet(f *excelize.File, events []model.Event, opts Options) error {
	header := make([]interface{}, len(csvHeader))
	for i, h := range csvHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetEvents, "A1", &header); err != nil {
		return fmt.Errorf("write events header: %w", err)
	}
	loc := opts.loc()
	for i, e := range events {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			FormatDate(e.TS, loc),
			FormatTime(e.TS, opts.TimeFormat, loc),
			e.Type.Label(),
			e.TS,
		}
		if err := f.SetSheetRow(sheetEvents, cell, &row); err != nil {
			return fmt.Errorf("write event row %d: %w", i, err)
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, rep Report) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	s := rep.Summary
	rows := [][]interface{}{
		{"Range", s.Label},
		{"Total", s.Total},
		{model.Pee.Label(), s.Pee},
		{model.Poop.Label(), s.Poop},
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetSummary, cell, &rows[i]); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	return nil
}

func writeChartSheet(f *excelize.File, rep Report) error {
	if _, err := f.NewSheet(sheetChart); err != nil {
		return fmt.Errorf("create chart sheet: %w", err)
	}
	chart := rep.Chart

	header := []interface{}{"Bucket"}
	for _, s := range chart.Series {
		header = append(header, s.Label)
	}
	if err := f.SetSheetRow(sheetChart, "A1", &header); err != nil {
		return fmt.Errorf("write chart header: %w", err)
	}
	for i, label := range chart.Buckets.Labels {
		row := []interface{}{label}
		for _, s := range chart.Series {
			row = append(row, s.Counts[i])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetChart, cell, &row); err != nil {
			return fmt.Errorf("write chart row: %w", err)
		}
	}

	if !chart.ChartWorthy {
		return nil
	}
	last := chart.Buckets.Len() + 1
	series := make([]excelize.ChartSeries, 0, len(chart.Series))
	for i := range chart.Series {
		col, err := excelize.ColumnNumberToName(i + 2)
		if err != nil {
			return err
		}
		series = append(series, excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", sheetChart, col),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheetChart, last),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", sheetChart, col, col, last),
		})
	}
	anchor, err := excelize.CoordinatesToCellName(len(chart.Series)+3, 2)
	if err != nil {
		return err
	}
	if err := f.AddChart(sheetChart, anchor, &excelize.Chart{
		Type:   excelize.Line,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: rep.Summary.Label}},
	}); err != nil {
		return fmt.Errorf("add chart: %w", err)
	}
	return nil
}
