package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"chatcal-api/core/errors"
	"chatcal-api/core/logger"
	"chatcal-api/modules/colorslot/entity"
)

const defaultSheetsBaseURL = "https://sheets.googleapis.com"

// sheetStore reads and writes the color table held in one Google Sheet.
// The header row is re-validated on every full read and the resulting cell
// layout (label column, row per slot) is what WriteLabel addresses; the
// resolver always performs a fresh ReadAll under the allocation lock before
// writing, so the layout can never be stale at write time.
type sheetStore struct {
	client        *http.Client
	baseURL       string
	spreadsheetID string
	sheetName     string

	mu        sync.Mutex
	labelCol  int // 0-based column index of the label cell, -1 until first read
	rowBySlot map[int]int
}

func NewSheetStore(client *http.Client, spreadsheetID, sheetName string) TabularStore {
	return &sheetStore{
		client:        client,
		baseURL:       defaultSheetsBaseURL,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		labelCol:      -1,
	}
}

type valueRange struct {
	Values [][]any `json:"values"`
}

func (s *sheetStore) ReadAll(ctx context.Context) ([]entity.ColorSlot, *errors.AppError) {
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?majorDimension=ROWS",
		s.baseURL, s.spreadsheetID, url.PathEscape(s.sheetName))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrStoreUnavailable, "failed to create sheet read request", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Error("SheetStore:ReadAll:DoRequest:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrStoreUnavailable, "failed to read color table", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		logger.Error("SheetStore:ReadAll:APIError", "status", resp.StatusCode, "body", string(body))
		return nil, errors.NewAppError(errors.ErrConfiguration,
			fmt.Sprintf("color table %q not found in spreadsheet", s.sheetName), nil)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.Error("SheetStore:ReadAll:APIError", "status", resp.StatusCode, "body", string(body))
		return nil, errors.NewAppError(errors.ErrStoreUnavailable,
			fmt.Sprintf("sheets API error: %d", resp.StatusCode), nil)
	}

	var vr valueRange
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, errors.NewAppError(errors.ErrStoreUnavailable, "failed to parse sheets response", err)
	}

	if len(vr.Values) == 0 {
		return nil, errors.NewAppError(errors.ErrConfiguration, "color table has no header row", nil)
	}

	cols, appErr := locateColumns(vr.Values[0])
	if appErr != nil {
		return nil, appErr
	}

	slots := make([]entity.ColorSlot, 0, len(vr.Values)-1)
	rowBySlot := make(map[int]int, len(vr.Values)-1)

	for i, row := range vr.Values[1:] {
		idCell := cellString(row, cols[ColumnID])
		if idCell == "" {
			// Blank id means the row does not exist as a slot.
			continue
		}
		slotID, err := strconv.Atoi(idCell)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrConfiguration,
				fmt.Sprintf("slot id %q is not numeric", idCell), err)
		}

		sheetRow := i + 2 // 1-based, after the header row
		slots = append(slots, entity.ColorSlot{
			SlotID:     slotID,
			Label:      cellString(row, cols[ColumnLabel]),
			Background: cellString(row, cols[ColumnBackground]),
			Foreground: cellString(row, cols[ColumnForeground]),
			RowIndex:   sheetRow,
		})
		rowBySlot[slotID] = sheetRow
	}

	s.mu.Lock()
	s.labelCol = cols[ColumnLabel]
	s.rowBySlot = rowBySlot
	s.mu.Unlock()

	return slots, nil
}

func (s *sheetStore) WriteLabel(ctx context.Context, slotID int, label string) *errors.AppError {
	s.mu.Lock()
	labelCol := s.labelCol
	row, ok := s.rowBySlot[slotID]
	s.mu.Unlock()

	if labelCol < 0 || !ok {
		return errors.NewAppError(errors.ErrStoreUnavailable,
			fmt.Sprintf("slot %d not present in last table read", slotID), nil)
	}

	rangeRef := fmt.Sprintf("%s!%s%d", s.sheetName, columnLetter(labelCol), row)
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?valueInputOption=RAW",
		s.baseURL, s.spreadsheetID, url.PathEscape(rangeRef))

	body, err := json.Marshal(map[string]any{"values": [][]string{{label}}})
	if err != nil {
		return errors.NewAppError(errors.ErrStoreUnavailable, "failed to encode cell write", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.NewAppError(errors.ErrStoreUnavailable, "failed to create cell write request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Error("SheetStore:WriteLabel:DoRequest:Error", "error", err, "slot_id", slotID)
		return errors.NewAppError(errors.ErrStoreUnavailable, "failed to write label cell", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		logger.Error("SheetStore:WriteLabel:APIError", "status", resp.StatusCode, "body", string(respBody), "slot_id", slotID)
		return errors.NewAppError(errors.ErrStoreUnavailable,
			fmt.Sprintf("sheets API error: %d", resp.StatusCode), nil)
	}

	logger.Info("SheetStore:WriteLabel:Success", "slot_id", slotID, "range", rangeRef)
	return nil
}

// locateColumns finds the four required columns in the header row by name.
func locateColumns(header []any) (map[string]int, *errors.AppError) {
	cols := map[string]int{}
	for i := range header {
		name := strings.ToLower(cellString(header, i))
		switch name {
		case ColumnID, ColumnLabel, ColumnBackground, ColumnForeground:
			if _, dup := cols[name]; !dup {
				cols[name] = i
			}
		}
	}

	var missing []string
	for _, name := range []string{ColumnID, ColumnLabel, ColumnBackground, ColumnForeground} {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewAppError(errors.ErrConfiguration,
			fmt.Sprintf("color table is missing required columns: %s", strings.Join(missing, ", ")), nil)
	}
	return cols, nil
}

// cellString renders a cell at index i to a trimmed string. Sheets returns
// formatted values as JSON strings, but be tolerant of bare numbers.
func cellString(row []any, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	switch v := row[i].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// columnLetter converts a 0-based column index to its A1 letter form.
func columnLetter(idx int) string {
	letters := ""
	n := idx + 1
	for n > 0 {
		n--
		letters = string(rune('A'+n%26)) + letters
		n /= 26
	}
	return letters
}
