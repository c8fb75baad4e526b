package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/ritchy/BytePass/internal/client/document"
)

// accountLines renders an account as one "field: value" line per field.
func accountLines(a *document.Account, reveal bool) string {
	if a == nil {
		return ""
	}

	v := NewAccountView(*a, reveal)

	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\n", v.Name)
	fmt.Fprintf(&b, "status: %s\n", v.Status)
	fmt.Fprintf(&b, "last_updated: %s\n", v.LastUpdated)
	fmt.Fprintf(&b, "username: %s\n", v.Username)
	fmt.Fprintf(&b, "password: %s\n", v.Password)
	fmt.Fprintf(&b, "account_number: %s\n", v.AccountNumber)
	fmt.Fprintf(&b, "url: %s\n", v.URL)
	fmt.Fprintf(&b, "email: %s\n", v.Email)
	fmt.Fprintf(&b, "hint: %s\n", v.Hint)
	fmt.Fprintf(&b, "notes: %s\n", strings.ReplaceAll(v.Notes, "\n", `\n`))
	fmt.Fprintf(&b, "tags: %s\n", strings.Join(v.Tags, ", "))
	return b.String()
}

// RecordDiff renders a line diff between the local and remote copies of a
// record. Either side may be nil when the record exists only on the other.
// An empty string means both copies are identical.
func RecordDiff(local, remote *document.Account, reveal bool) string {
	localStr := accountLines(local, reveal)
	remoteStr := accountLines(remote, reveal)
	if localStr == remoteStr {
		return ""
	}

	dmp := diffmatchpatch.New()

	// Line-mode diff
	a, b, lineArray := dmp.DiffLinesToChars(localStr, remoteStr)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out strings.Builder
	out.WriteString(color.RedString("--- local\n"))
	out.WriteString(color.GreenString("+++ remote\n"))

	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			line = strings.TrimSuffix(line, "\n")

			switch d.Type {
			case diffmatchpatch.DiffDelete:
				out.WriteString(color.RedString("- %s", line))
			case diffmatchpatch.DiffInsert:
				out.WriteString(color.GreenString("+ %s", line))
			default:
				out.WriteString("  " + line)
			}
			out.WriteByte('\n')
		}
	}

	return out.String()
}
