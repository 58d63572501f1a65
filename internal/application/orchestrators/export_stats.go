package orchestrators

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"swimtrack/internal/domain/season"
	"swimtrack/internal/domain/stats"
)

// StatsReader provides the season attendance ranking.
type StatsReader interface {
	AttendanceStatsBySeason(ctx context.Context, f stats.Filter) ([]stats.AthleteStat, error)
}

// statsSheet is the single worksheet of the export.
const statsSheet = "Attendance"

var statsHeader = []any{"Fincode", "Name", "Present", "Justified", "Sessions", "Attendance %"}

// ExportStatsInput carries input for the export stats orchestrator.
type ExportStatsInput struct {
	Filter stats.Filter
}

// ExportStatsDeps holds dependencies for ExportStats.
type ExportStatsDeps struct {
	Stats StatsReader
}

// ExecuteExportStats writes the season ranking to w as an xlsx workbook.
// PRE: Filter.Season is set
// POST: w holds a workbook with a header row and one row per athlete, in
// ranking order; athletes without sessions get an empty percentage cell
func ExecuteExportStats(ctx context.Context, input ExportStatsInput, deps ExportStatsDeps, w io.Writer) (int, error) {
	if input.Filter.Season == "" {
		return 0, stats.ErrMissingSeason
	}
	rows, err := deps.Stats.AttendanceStatsBySeason(ctx, input.Filter)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), statsSheet); err != nil {
		return 0, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeStatsRows(f, input.Filter, rows); err != nil {
		return 0, err
	}
	if err := f.Write(w); err != nil {
		return 0, fmt.Errorf("write workbook: %w", err)
	}

	slog.Info("stats_event", "event", "stats_exported", "season", input.Filter.Season, "type", input.Filter.Type, "group", input.Filter.Group, "rows", len(rows))
	return len(rows), nil
}

func writeStatsRows(f *excelize.File, filter stats.Filter, rows []stats.AthleteStat) error {
	title := "Season " + season.DisplayText(filter.Season)
	if err := f.SetCellValue(statsSheet, "A1", title); err != nil {
		return err
	}
	if err := f.SetSheetRow(statsSheet, "A2", &statsHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(statsSheet, "A1", "F2", bold); err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return err
		}
		var pct any = ""
		if r.Percent != nil {
			pct = *r.Percent
		}
		values := []any{r.Fincode, r.Name, r.Present, r.Justified, r.TotalSessions, pct}
		if err := f.SetSheetRow(statsSheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SetColWidth(statsSheet, "B", "B", 32)
}
