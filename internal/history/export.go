package history

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/beevik/etree"
)

// Export formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatXML  = "xml"
)

// ErrUnknownFormat is returned by Export for an unsupported format.
var ErrUnknownFormat = errors.New("unknown export format")

// Export writes history to w, most recent first.
//
//	text  one selector per line
//	json  an array of strings
//	xml   <history><selector rank="1">...</selector></history>
func Export(w io.Writer, history []string, format string) error {
	switch format {
	case FormatText, "":
		bw := bufio.NewWriter(w)
		for _, s := range history {
			bw.WriteString(s)
			bw.WriteByte('\n')
		}
		return bw.Flush()

	case FormatJSON:
		if history == nil {
			history = []string{}
		}
		data, err := json.MarshalIndent(history, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode history: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err

	case FormatXML:
		doc := etree.NewDocument()
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
		root := doc.CreateElement("history")
		root.CreateAttr("count", strconv.Itoa(len(history)))
		for i, s := range history {
			el := root.CreateElement("selector")
			el.CreateAttr("rank", strconv.Itoa(i+1))
			el.SetText(s)
		}
		doc.Indent(2)
		_, err := doc.WriteTo(w)
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
