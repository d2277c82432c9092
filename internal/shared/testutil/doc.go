// Package testutil holds test helpers shared across packages: a capturing
// slog handler for log assertions and a generator for input workbooks.
//
//	path := testutil.WriteWorkbook(t, dir, "Hot Parts 2025.07.07.xlsx",
//	    testutil.SheetSpec{Name: "2025.07.07", Rows: [][]any{testutil.HotPartsHeader, {"ABC123", 5, "Broadcom"}}})
package testutil
