package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/jacentio/kennel/model"
	"github.com/jacentio/kennel/store"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgBlue, color.Bold)
	doneColor    = color.New(color.FgHiBlack)
	dimColor     = color.New(color.FgHiBlack)
)

const dateLayout = "2006-01-02"

// FormatError formats an error for display, naming its kind.
func FormatError(err error) string {
	var violation *store.ContractViolation
	kind := ""
	switch {
	case errors.As(err, &violation):
		kind = "invalid request"
	case errors.Is(err, store.ErrNotFound):
		kind = "not found"
	case errors.Is(err, store.ErrAlreadyExists):
		kind = "already exists"
	case errors.Is(err, store.ErrNotAuthorized):
		kind = "not authorized"
	case errors.Is(err, store.ErrTimeout):
		kind = "timeout"
	case errors.Is(err, store.ErrBadRequest):
		kind = "bad request"
	case errors.Is(err, store.ErrDecoding):
		kind = "corrupt data"
	}
	if kind == "" {
		return errorColor.Sprintf("Error: %v", err)
	}
	return errorColor.Sprintf("Error (%s): %v", kind, err)
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSuccess(w io.Writer, msg string) {
	_, _ = successColor.Fprintf(w, "✓ %s\n", msg)
}

func printHeader(w io.Writer, title string) {
	_, _ = headerColor.Fprintf(w, "▸ %s\n", title)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

// parseDate accepts a plain date or an RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

func printDogs(w io.Writer, dogs []model.Dog) error {
	if jsonOutput {
		return outputJSON(w, dogs)
	}
	if len(dogs) == 0 {
		_, _ = dimColor.Fprintln(w, "No dogs")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tBORN\tSEX")
	for _, d := range dogs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Name, formatDate(d.BirthDate), d.BiologicalSex)
	}
	return tw.Flush()
}

func printSchedules(w io.Writer, schedules []model.Schedule) error {
	if jsonOutput {
		return outputJSON(w, schedules)
	}
	if len(schedules) == 0 {
		_, _ = dimColor.Fprintln(w, "No schedules")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDOG\tDATE\tDONE\tCONTENT")
	for _, s := range schedules {
		line := fmt.Sprintf("%s\t%s\t%s\t%v\t%s\n", s.ID, s.DogID, formatDate(s.Date), s.Complete, s.Content)
		if s.Complete {
			line = doneColor.Sprint(line)
		}
		fmt.Fprint(tw, line)
	}
	return tw.Flush()
}

func printCertificates(w io.Writer, certificates []model.Certificate) error {
	if jsonOutput {
		return outputJSON(w, certificates)
	}
	if len(certificates) == 0 {
		_, _ = dimColor.Fprintln(w, "No certificates")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDOG\tDATE\tTITLE")
	for _, c := range certificates {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.DogID, formatDate(c.Date), c.Title)
	}
	return tw.Flush()
}
