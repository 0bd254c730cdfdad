package main

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/xuri/excelize/v2"
)

// Prints a per-status summary of a swaps export downloaded from
// /api/v1/admin/swaps/export.
func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <swaps.xlsx>", os.Args[0])
	}

	f, err := excelize.OpenFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		log.Fatal("no sheets found")
	}
	fmt.Printf("Sheets: %v\n", sheets)

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		log.Fatal(err)
	}
	if len(rows) == 0 {
		log.Fatal("sheet is empty")
	}

	statusCol := -1
	for i, h := range rows[0] {
		if h == "Status" {
			statusCol = i
		}
	}
	if statusCol < 0 {
		log.Fatal("no Status column; is this a swaps export?")
	}

	counts := make(map[string]int)
	for _, row := range rows[1:] {
		if statusCol < len(row) {
			counts[row[statusCol]]++
		}
	}

	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)

	fmt.Printf("Offers: %d\n", len(rows)-1)
	for _, s := range statuses {
		fmt.Printf("  %-10s %d\n", s, counts[s])
	}
}
