package sheet

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jgoulah/dispatchtracker/internal/remote"
	"github.com/jgoulah/dispatchtracker/pkg/models"
)

func testRecord(id, date string, sur, kdc models.UnitValue) models.Record {
	r := models.NewRecord(time.Now(), date, map[models.UnitKey]models.UnitValue{
		models.UnitSUR: sur,
		models.UnitKDC: kdc,
	})
	r.ID = id
	return r
}

func openTemp(t *testing.T) *Workbook {
	t.Helper()
	book, err := Open(filepath.Join(t.TempDir(), "store", "rows.xlsx"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = book.Close() })
	return book
}

func TestHeader(t *testing.T) {
	h := Header()
	if len(h) != 14 {
		t.Fatalf("header has %d columns, want 14", len(h))
	}
	if h[0] != "ID" || h[2] != "SUR_O" || h[11] != "LMN_D" || h[13] != "Total_D" {
		t.Errorf("header = %v", h)
	}
}

func TestOpenCreatesHeader(t *testing.T) {
	book := openTemp(t)

	rows, err := book.file.GetRows(book.sheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 || rows[0][0] != "ID" {
		t.Errorf("new workbook rows = %v, want a single header row", rows)
	}

	records, err := book.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Rows() on a new workbook = %d records, want 0", len(records))
	}
}

func TestUpsertAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.xlsx")
	book, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	a := testRecord("1740787200001", "2025-03-01", models.UnitValue{OrderValue: 100, DispatchValue: 50}, models.UnitValue{})
	b := testRecord("1740787200002", "2025-03-02", models.UnitValue{OrderValue: 2.5}, models.UnitValue{OrderValue: 10, DispatchValue: 7})
	for _, r := range []models.Record{a, b} {
		if err := book.Upsert(r); err != nil {
			t.Fatalf("Upsert(%s): %v", r.ID, err)
		}
	}
	_ = book.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	want := models.RecordSet{a, b}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rows() = %+v, want %+v", got, want)
	}
}

func TestUpsertReplacesSameID(t *testing.T) {
	book := openTemp(t)
	first := testRecord("7", "2025-03-01", models.UnitValue{OrderValue: 1}, models.UnitValue{})
	resent := testRecord("7", "2025-03-01", models.UnitValue{OrderValue: 9, DispatchValue: 3}, models.UnitValue{})
	other := testRecord("8", "2025-03-02", models.UnitValue{OrderValue: 2}, models.UnitValue{})

	for _, r := range []models.Record{first, other, resent} {
		if err := book.Upsert(r); err != nil {
			t.Fatalf("Upsert(%s): %v", r.ID, err)
		}
	}

	got, err := book.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if !reflect.DeepEqual(got, models.RecordSet{resent, other}) {
		t.Errorf("Rows() = %+v, want the resent record in place of the first", got)
	}
}

func TestDelete(t *testing.T) {
	book := openTemp(t)
	for _, id := range []string{"1", "2", "3"} {
		if err := book.Upsert(testRecord(id, "2025-03-01", models.UnitValue{OrderValue: 1}, models.UnitValue{})); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	found, err := book.Delete("2")
	if err != nil || !found {
		t.Fatalf("Delete(2) = %v, %v; want true, nil", found, err)
	}
	found, err = book.Delete("2")
	if err != nil || found {
		t.Errorf("second Delete(2) = %v, %v; want false, nil", found, err)
	}
	// ids match exactly, not by prefix
	if found, _ := book.Delete("3 "); found {
		t.Error("Delete should not match a different id")
	}

	records, _ := book.Rows()
	var ids []string
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	if !reflect.DeepEqual(ids, []string{"1", "3"}) {
		t.Errorf("remaining ids = %v, want [1 3]", ids)
	}

	// appends after a delete land after the last row
	if err := book.Upsert(testRecord("4", "2025-03-02", models.UnitValue{}, models.UnitValue{})); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	records, _ = book.Rows()
	if len(records) != 3 || records[2].ID != "4" {
		t.Errorf("after append ids = %v", records)
	}
}

func TestRowsLenientCells(t *testing.T) {
	book := openTemp(t)

	// A hand-edited sheet: blank line, numeric date serial, text amounts, short row
	serial := 45717.0 // 2025-03-01
	rows := map[string][]any{
		"A3": {"555", serial, "1,200", "-5", "abc"},
		"A4": {"556", "2025-03-02", 10, 5, 0, 0, 0, 0, 0, 0, 0, 0, 10, 5},
	}
	for cell, row := range rows {
		if err := book.file.SetSheetRow(book.sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	got, err := book.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Rows() = %d records, want 2", len(got))
	}

	first := got[0]
	if first.Date != "2025-03-01" {
		t.Errorf("serial date = %q, want 2025-03-01", first.Date)
	}
	if v := first.Unit(models.UnitSUR); v.OrderValue != 1200 || v.DispatchValue != 0 {
		t.Errorf("SUR = %+v, want 1200/0", v)
	}
	if v := first.Unit(models.UnitLMN); v.OrderValue != 0 {
		t.Errorf("missing cells should read as zero, got %+v", v)
	}
	if len(first.Units) != len(models.Units) {
		t.Errorf("every unit should be present, got %d", len(first.Units))
	}
	if got[1].TotalOrder != 10 || got[1].TotalDispatch != 5 {
		t.Errorf("totals = %v/%v, want 10/5", got[1].TotalOrder, got[1].TotalDispatch)
	}
}

func TestRowsDateFormattedCells(t *testing.T) {
	book := openTemp(t)

	// Written by a spreadsheet app: a real Date cell shown as "3/1/25 00:00"
	row := []any{"557"}
	if err := book.file.SetSheetRow(book.sheet, "A2", &row); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}
	if err := book.file.SetCellValue(book.sheet, "B2", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}

	got, err := book.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(got) != 1 || got[0].Date != "2025-03-01" {
		t.Errorf("Rows() = %+v, want one record dated 2025-03-01", got)
	}
}

func TestCellParsing(t *testing.T) {
	dates := []struct{ in, want string }{
		{"2025-03-01", "2025-03-01"},
		{"45717", "2025-03-01"},
		{"2025-03-01T00:00:00Z", "2025-03-01"},
		{"2025-03-01 08:30:00", "2025-03-01"},
		{"someday", "someday"},
	}
	for _, tt := range dates {
		if got := cellDate(tt.in); got != tt.want {
			t.Errorf("cellDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	ids := []struct{ in, want string }{
		{"1740787200123", "1740787200123"},
		{"1.740787200123E+12", "1740787200123"},
		{" 42 ", "42"},
		{"abc", "abc"},
	}
	for _, tt := range ids {
		if got := cellID(tt.in); got != tt.want {
			t.Errorf("cellID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHandler(t *testing.T) {
	srv := httptest.NewServer(NewHandler(openTemp(t), nil))
	defer srv.Close()

	post := func(body string) string {
		t.Helper()
		resp, err := http.Post(srv.URL, "text/plain;charset=utf-8", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return string(b)
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"save", `{"action":"SAVE","id":"10","date":"2025-03-01","units":{"SUR":{"orderValue":5,"dispatchValue":1}},"totalOrder":5,"totalDispatch":1}`, ReplySuccess},
		{"delete numeric id", `{"action":"DELETE","id":10}`, ReplyDeleted},
		{"delete again", `{"action":"DELETE","id":"10"}`, ReplyNotFound},
		{"bad json", `{not json`, "Error: "},
		{"save without id", `{"action":"SAVE","date":"2025-03-01"}`, "Error: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := post(tt.body); !strings.HasPrefix(got, tt.want) {
				t.Errorf("reply = %q, want prefix %q", got, tt.want)
			}
		})
	}

	req, _ := http.NewRequest(http.MethodPut, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("PUT status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestHandlerWithClient(t *testing.T) {
	srv := httptest.NewServer(NewHandler(openTemp(t), nil))
	defer srv.Close()

	client := remote.NewClient(remote.ClientConfig{
		Endpoint:      srv.URL,
		ConfirmWrites: true,
		RateLimit:     100,
		Burst:         100,
	})
	ctx := context.Background()

	a := testRecord("1740787200001", "2025-03-01", models.UnitValue{OrderValue: 100, DispatchValue: 50}, models.UnitValue{})
	b := testRecord("1740787200002", "2025-03-02", models.UnitValue{OrderValue: 40}, models.UnitValue{DispatchValue: 30})
	for _, r := range []models.Record{a, b} {
		if err := client.Save(ctx, r); err != nil {
			t.Fatalf("Save(%s): %v", r.ID, err)
		}
	}

	got, err := client.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !reflect.DeepEqual(got, models.RecordSet{a, b}) {
		t.Errorf("Fetch() = %+v, want %+v", got, models.RecordSet{a, b})
	}

	if err := client.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ = client.Fetch(ctx)
	if len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("after delete = %+v", got)
	}
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")
	records := models.RecordSet{
		testRecord("2", "2025-03-02", models.UnitValue{OrderValue: 20, DispatchValue: 10}, models.UnitValue{}),
		testRecord("1", "2025-03-01", models.UnitValue{OrderValue: 10}, models.UnitValue{OrderValue: 5, DispatchValue: 5}),
	}

	if err := Export(path, records); err != nil {
		t.Fatalf("Export: %v", err)
	}

	book, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer book.Close()

	got, err := book.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("exported rows = %+v, want %+v", got, records)
	}
}
