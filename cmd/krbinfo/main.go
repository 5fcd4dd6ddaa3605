// Command krbinfo is the CLI inspection tool from SPEC_FULL.md §3: it
// parses a .krb document and prints its header fields, section counts,
// and a flattened element list, for humans debugging a document without
// launching the full renderer.
package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/kryon-ui/kryon-runtime/krb"
)

func main() {
	app := &cli.Command{
		Name:      "krbinfo",
		Usage:     "inspect a compiled KRB document",
		ArgsUsage: "FILE.krb",
		Action:    inspect,
	}
	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "krbinfo: %v\n", err)
		os.Exit(1)
	}
}

func inspect(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: krbinfo FILE.krb")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	doc, err := krb.ReadDocument(f)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", path, err)
	}

	printHeader(doc)
	printCounts(doc)
	printElements(doc)
	printScripts(doc)
	return nil
}

func printHeader(doc *krb.Document) {
	h := doc.Header
	fmt.Printf("Header:\n")
	fmt.Printf("  version:        %d.%d\n", doc.VersionMajor, doc.VersionMinor)
	fmt.Printf("  flags:          0x%04x (has_app=%t, has_scripts=%t)\n",
		h.Flags, h.Flags&krb.FlagHasApp != 0, h.HasScripts)
	fmt.Printf("  total_size:     %d bytes\n", h.TotalSize)
}

func printCounts(doc *krb.Document) {
	fmt.Printf("Sections:\n")
	fmt.Printf("  elements:            %d\n", len(doc.Elements))
	fmt.Printf("  styles:              %d\n", len(doc.Styles))
	fmt.Printf("  component defs:      %d\n", len(doc.ComponentDefinitions))
	fmt.Printf("  scripts:             %d\n", len(doc.Scripts))
	fmt.Printf("  strings:             %d\n", len(doc.Strings))
	fmt.Printf("  resources:           %d\n", len(doc.Resources))
}

func printElements(doc *krb.Document) {
	fmt.Printf("Elements (flattened, file order):\n")
	for i, hdr := range doc.Elements {
		name := elementTypeName(hdr.Type)
		fmt.Printf("  [%3d] type=%-10s id=%d children=%d style=%d pos=(%d,%d) size=(%dx%d)\n",
			i, name, hdr.ID, hdr.ChildCount, hdr.StyleID, hdr.PosX, hdr.PosY, hdr.Width, hdr.Height)
	}
}

func printScripts(doc *krb.Document) {
	if len(doc.Scripts) == 0 {
		return
	}
	fmt.Printf("Scripts (listed, never evaluated):\n")
	for i, s := range doc.Scripts {
		name, _ := stringAt(doc, s.NameIndex)
		fmt.Printf("  [%d] name=%q language=%d storage=%d entry_points=%d\n", i, name, s.Language, s.Storage, len(s.EntryPoints))
	}
}

func stringAt(doc *krb.Document, idx uint8) (string, bool) {
	if int(idx) >= len(doc.Strings) {
		return "", false
	}
	return doc.Strings[idx], true
}

func elementTypeName(t krb.ElementType) string {
	switch t {
	case krb.ElemTypeApp:
		return "App"
	case krb.ElemTypeContainer:
		return "Container"
	case krb.ElemTypeText:
		return "Text"
	case krb.ElemTypeImage:
		return "Image"
	case krb.ElemTypeCanvas:
		return "Canvas"
	case krb.ElemTypeButton:
		return "Button"
	case krb.ElemTypeInput:
		return "Input"
	case krb.ElemTypeList:
		return "List"
	case krb.ElemTypeGrid:
		return "Grid"
	case krb.ElemTypeScrollable:
		return "Scrollable"
	case krb.ElemTypeVideo:
		return "Video"
	default:
		return fmt.Sprintf("Custom(0x%02x)", uint8(t))
	}
}
