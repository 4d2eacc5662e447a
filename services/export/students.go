// Package export renders student data as spreadsheets.
package export

import (
	"io"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/drivingschool/core/student"
)

// sheet names
const (
	SheetStudents = "Students"
	SheetPayments = "Payments"
	SheetBookings = "Bookings"
)

type sheet struct {
	title  string
	header []string
	rows   [][]interface{}
}

// StudentsWorkbook holds the roster, payments and bookings of students, one sheet each.
type StudentsWorkbook struct {
	File *excelize.File
}

func NewStudentsWorkbook(profiles []student.Profile) (*StudentsWorkbook, error) {
	students := sheet{
		title: SheetStudents,
		header: []string{
			"ID", "Full name", "Email", "Phone", "Address", "Group",
			"Paid", "Theory %", "Practice %", "Instructor", "Registered",
		},
	}
	payments := sheet{title: SheetPayments, header: []string{"Student ID", "Full name", "Date", "Amount"}}
	bookings := sheet{title: SheetBookings, header: []string{"Student ID", "Full name", "Date", "Time", "Place"}}

	for _, p := range profiles {
		usr, info := p.User, p.Info
		var registered string
		if !usr.CreatedAt.IsZero() {
			registered = usr.CreatedAt.Format("2006-01-02")
		}
		students.rows = append(students.rows, []interface{}{
			usr.ID, usr.FullName, usr.Email, usr.Phone, usr.Address, usr.Group,
			info.Payment, info.TheoryProgress, info.PracticeProgress, info.Instructor.FullName, registered,
		})
		for _, pmt := range info.Payments {
			payments.rows = append(payments.rows, []interface{}{usr.ID, usr.FullName, pmt.Date, pmt.Amount})
		}
		for _, bkg := range info.Booking {
			bookings.rows = append(bookings.rows, []interface{}{usr.ID, usr.FullName, bkg.Date, bkg.Time, bkg.Place})
		}
	}

	f := excelize.NewFile()
	for i, s := range []sheet{students, payments, bookings} {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.title); err != nil {
				return nil, errors.Wrap(err, "renaming sheet")
			}
		} else if _, err := f.NewSheet(s.title); err != nil {
			return nil, errors.Wrapf(err, "creating sheet %s", s.title)
		}
		if err := writeSheet(f, s); err != nil {
			return nil, errors.Wrapf(err, "writing sheet %s", s.title)
		}
	}
	return &StudentsWorkbook{File: f}, nil
}

func writeSheet(f *excelize.File, s sheet) error {
	header := make([]interface{}, len(s.header))
	for i, h := range s.header {
		header[i] = h
	}
	if err := f.SetSheetRow(s.title, "A1", &header); err != nil {
		return err
	}
	for r, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		row := row
		if err = f.SetSheetRow(s.title, cell, &row); err != nil {
			return err
		}
	}

	// bold header + autofilter
	end, err := excelize.CoordinatesToCellName(len(s.header), 1)
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err = f.SetCellStyle(s.title, "A1", end, bold); err != nil {
		return err
	}
	if err = f.AutoFilter(s.title, "A1:"+end, nil); err != nil {
		return err
	}

	// heuristic width: header and first rows
	for c := 0; c < len(s.header); c++ {
		width := utf8.RuneCountInString(s.header[c])
		for r := 0; r < len(s.rows) && r < 50; r++ {
			if str, ok := s.rows[r][c].(string); ok {
				if l := utf8.RuneCountInString(str); l > width {
					width = l
				}
			}
		}
		w := float64(width) * 1.1
		if w < 10 {
			w = 10
		}
		if w > 40 {
			w = 40
		}
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err = f.SetColWidth(s.title, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

// Write writes the workbook in XLSX format.
func (w *StudentsWorkbook) Write(out io.Writer) error {
	return w.File.Write(out)
}

func (w *StudentsWorkbook) SaveAs(path string) error {
	return w.File.SaveAs(path)
}

func (w *StudentsWorkbook) Close() error {
	return w.File.Close()
}
