package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-predict/internal/selection"
	"github.com/p-n-ai/pai-predict/internal/topics"
)

const exportSheet = "Topics"

var errNoResult = errors.New("session has no prediction yet")

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	if st.Last == nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: codeNoResult, Message: errNoResult.Error()})
		return
	}

	f, err := buildWorkbook(st.Last)
	if err != nil {
		writeError(w, fmt.Errorf("building workbook: %w", err), nil)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(st.Last)))
	if err := f.Write(w); err != nil {
		slog.Error("failed to write workbook", "session_id", st.ID, "error", err)
	}
}

// buildWorkbook lays the three buckets out as columns under their labels.
func buildWorkbook(p *selection.Prediction) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, err
	}

	header := make([]any, 0, len(topics.Tiers))
	for _, t := range topics.Tiers {
		header = append(header, t.Label())
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}

	for col, t := range topics.Tiers {
		for row, topic := range p.Buckets.Get(t) {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(exportSheet, cell, topic); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(exportSheet, "A1", "C1", bold); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetColWidth(exportSheet, "A", "C", 45); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   p.Subject,
		Subject: p.Mode,
		Created: p.At.UTC().Format("2006-01-02T15:04:05Z"),
	}); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func exportFilename(p *selection.Prediction) string {
	name := strings.ToLower(p.Subject + " " + p.Mode)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, name)
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}
	return strings.Trim(name, "-") + ".xlsx"
}
